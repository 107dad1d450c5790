package cmd

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/storjcli/internal/bridgeserver"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const (
	testUser    = "alice@example.com"
	testPass    = "bridge-pass"
	testKeyPass = "keyring-pass"
)

// setupCLI starts a local bridge and points the CLI at it through the
// environment. The working directory moves to a fresh temp dir.
func setupCLI(t *testing.T) (workDir, dataDir string) {
	t.Helper()

	meta, err := bridgeserver.OpenMetaStore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })
	blobs, err := bridgeserver.NewFSBlobStore(t.TempDir())
	require.NoError(t, err)
	srv, err := bridgeserver.New(bridgeserver.Options{
		Users:  map[string]string{testUser: testPass},
		Secret: []byte("cli-test"),
		Meta:   meta,
		Blobs:  blobs,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	workDir = t.TempDir()
	dataDir = filepath.Join(t.TempDir(), ".storjcli")
	t.Chdir(workDir)

	t.Setenv("NO_COLOR", "1")
	t.Setenv("BRIDGE_URL", ts.URL)
	t.Setenv("BRIDGE_USER", testUser)
	t.Setenv("BRIDGE_PASS", testPass)
	t.Setenv("BRIDGE_RETRY_MAX", "-1")
	t.Setenv("STORJ_KEYPASS", testKeyPass)
	t.Setenv("DATA_DIR", dataDir)
	return workDir, dataDir
}

// resetFlags returns every flag of the tree to its default so runs do not
// leak into each other.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(RootCmd)
	serveStore = ""
}

// runCLI executes the command tree with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
