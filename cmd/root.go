package cmd

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/PolarWolf314/storjcli/internal/configs"
	logger "github.com/PolarWolf314/storjcli/internal/logging"
	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/PolarWolf314/storjcli/internal/utils"
	"github.com/PolarWolf314/storjcli/internal/workflows"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	debug     bool
	bridgeURL string
	dataDir   string

	Logger   logger.Logger
	settings *configs.Settings

	RootCmd = &cobra.Command{
		Use:   "storjcli",
		Short: "storjcli - encrypted file storage on a storage bridge",
		Long: `storjcli stores files on a storage bridge, encrypting them on the way up
and decrypting them on the way down. The per-file secrets never leave this
machine: they live in a password-protected keyring in the data directory.

Configuration comes from <data-dir>/config.toml, a .env file and the
environment (BRIDGE_URL, BRIDGE_USER, BRIDGE_PASS, STORJ_KEYPASS, DATA_DIR).

Examples:
  storjcli keyring init
  storjcli buckets create photos
  storjcli files upload photos cat.jpg
  storjcli files download photos cat.jpg -o /tmp/cat.jpg
  storjcli bridge serve --store fs`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)

			var err error
			settings, err = configs.Load(configs.Overrides{
				DataDir:   dataDir,
				BridgeURL: bridgeURL,
			})
			if err != nil {
				return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
			}
			if debug && settings.LogLevel == configs.DefaultLogLevel {
				settings.LogLevel = "debug"
			}
			Logger.Debugf("Data directory: %s", settings.DataDir)
			Logger.Debugf("Bridge: %s (user %q)", settings.BridgeURL, settings.BridgeUser)
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), figure.NewFigure("storjcli", "", true).String())
			fmt.Fprintln(cmd.OutOrStdout(), "Run "+ui.Code.Sprint("storjcli --help")+" to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&bridgeURL, "bridge-url", "", "bridge base URL (overrides BRIDGE_URL)")
	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides DATA_DIR)")

	RootCmd.AddCommand(BucketsCmd)
	RootCmd.AddCommand(FilesCmd)
	RootCmd.AddCommand(KeyringCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(BridgeCmd)
}

// Execute runs the command tree and returns the exit code.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		if !isReported(err) {
			fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗")+" "+err.Error())
		}
		return 1
	}
	return 0
}

// newBridgeClient builds the client from the loaded settings.
func newBridgeClient() *bridge.HTTPClient {
	return bridge.NewClient(bridge.Options{
		BaseURL:  settings.BridgeURL,
		User:     settings.BridgeUser,
		Password: settings.BridgePass,
		LogLevel: settings.LogLevel,
		Timeout:  settings.Timeout,
		RetryMax: settings.RetryMax,
	})
}

// bucketDefaults are the quotas used when a command creates a bucket.
func bucketDefaults() workflows.CreateBucketOptions {
	return workflows.CreateBucketOptions{
		Storage:  settings.Bucket.Storage,
		Transfer: settings.Bucket.Transfer,
		DataDir:  settings.DataDir,
	}
}

// keyRingAccess collects the keyring password from STORJ_KEYPASS, or prompts
// for it when stdin is a terminal. It must run before any spinner starts.
func keyRingAccess() (workflows.KeyRingAccess, error) {
	access := workflows.KeyRingAccess{
		DataDir:  settings.DataDir,
		Password: settings.KeyPass,
	}
	if access.Password != "" {
		Logger.Debugf("Using keyring password from STORJ_KEYPASS")
		return access, nil
	}
	if !utils.IsTerminal() {
		Logger.Debugf("No keyring password and stdin is not a terminal")
		return access, nil
	}

	pw, err := utils.PromptPassphrase("Keyring password: ")
	if err != nil {
		return access, err
	}
	access.Password = string(pw)
	return access, nil
}
