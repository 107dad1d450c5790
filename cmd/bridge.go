package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PolarWolf314/storjcli/internal/bridgeserver"
	logger "github.com/PolarWolf314/storjcli/internal/logging"
	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// storeKind is the --store flag; it only accepts fs or s3.
type storeKind string

var _ pflag.Value = (*storeKind)(nil)

func (s *storeKind) String() string { return string(*s) }
func (s *storeKind) Type() string   { return "fs|s3" }

func (s *storeKind) Set(v string) error {
	switch v {
	case "fs", "s3":
		*s = storeKind(v)
		return nil
	default:
		return fmt.Errorf("must be fs or s3, got %q", v)
	}
}

var (
	serveAddr  string
	serveStore storeKind

	BridgeCmd = &cobra.Command{
		Use:   "bridge",
		Short: "Run a local storage bridge",
	}

	bridgeServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge HTTP API from this machine",
		Long: `Serves the bridge API for the account in BRIDGE_USER and BRIDGE_PASS.

Metadata is kept in <data-dir>/bridge/meta.db. File content goes to
<data-dir>/bridge/blobs (--store fs) or to the S3 bucket in S3_BUCKET
(--store s3; S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are
optional). Tokens are signed with BRIDGE_SERVER_SECRET, or a random secret
that lasts until the server stops.

Examples:
  storjcli bridge serve
  storjcli bridge serve --addr :9000 --store s3`,
		Args: cobra.NoArgs,
		RunE: runBridgeServe,
	}
)

func init() {
	bridgeServeCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default BRIDGE_SERVER_ADDR or 127.0.0.1:8080)")
	bridgeServeCmd.Flags().Var(&serveStore, "store", "blob store: fs or s3 (default BRIDGE_SERVER_STORE or fs)")

	BridgeCmd.AddCommand(bridgeServeCmd)
}

func runBridgeServe(cmd *cobra.Command, args []string) error {
	if settings.BridgeUser == "" || settings.BridgePass == "" {
		return fmt.Errorf("%s and %s must be set to serve a bridge", ui.Code.Sprint("BRIDGE_USER"), ui.Code.Sprint("BRIDGE_PASS"))
	}

	server := settings.Server
	if serveAddr != "" {
		server.Addr = serveAddr
	}
	if serveStore != "" {
		server.Store = string(serveStore)
	}

	secret := []byte(server.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating token secret: %w", err)
		}
		Logger.WarnfAlways("BRIDGE_SERVER_SECRET is not set; tokens are invalidated when the server stops")
	}

	level := settings.LogLevel
	if level == logger.Silent {
		level = "info"
	}
	zl := logger.NewZap(level)
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meta, err := bridgeserver.OpenMetaStore(settings.ServerDBPath())
	if err != nil {
		return err
	}
	defer meta.Close()

	blobs, err := bridgeserver.OpenBlobStore(ctx, server.Store, settings.BlobDir(), bridgeserver.S3Options{
		Bucket:    server.S3.Bucket,
		Region:    server.S3.Region,
		Endpoint:  server.S3.Endpoint,
		AccessKey: server.S3.AccessKey,
		SecretKey: server.S3.SecretKey,
	})
	if err != nil {
		return err
	}

	srv, err := bridgeserver.New(bridgeserver.Options{
		Users:    map[string]string{settings.BridgeUser: settings.BridgePass},
		Secret:   secret,
		TokenTTL: server.TokenTTL,
		Meta:     meta,
		Blobs:    blobs,
		Logger:   zl,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), success("Serving bridge on %s %s", ui.Path.Sprint("http://"+server.Addr),
		ui.Muted.Sprint(server.Store+" store")))
	zl.Info("starting bridge", zap.String("addr", server.Addr), zap.String("store", server.Store))
	return srv.ListenAndServe(ctx, server.Addr)
}
