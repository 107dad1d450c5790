package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/PolarWolf314/storjcli/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	KeyringCmd = &cobra.Command{
		Use:   "keyring",
		Short: "Manage the local keyring of file secrets",
	}

	keyringInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Create the keyring, or check the password of an existing one",
		Long: `Creates <data-dir>/keyring.db protected by the keyring password, and a
default config.toml next to it. Running it again on an existing keyring
checks the password and reports how many secrets it holds.`,
		Args: cobra.NoArgs,
		RunE: runKeyringInit,
	}

	keyringListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the file ids with a stored secret",
		Args:    cobra.NoArgs,
		RunE:    runKeyringList,
	}
)

func init() {
	KeyringCmd.AddCommand(keyringInitCmd)
	KeyringCmd.AddCommand(keyringListCmd)
}

func runKeyringInit(cmd *cobra.Command, args []string) error {
	access, err := keyRingAccess()
	if err != nil {
		return err
	}

	spinner, cleanup := startSpinner(cmd, "Opening keyring...")
	defer cleanup()

	result, err := workflows.KeyringInit(context.Background(), workflows.KeyringInitOptions{KeyRingAccess: access})
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	if result.Created {
		spinner.FinalMSG = success("Created keyring at %s", ui.Path.Sprint(result.Path))
	} else {
		spinner.FinalMSG = success("Keyring at %s unlocked, %d secrets stored", ui.Path.Sprint(result.Path), result.Secrets)
	}
	if result.ConfigCreated {
		spinner.FinalMSG += "\n" + hint("Default settings written to %s", ui.Path.Sprint(settings.DataDir+"/config.toml"))
	}
	return nil
}

func runKeyringList(cmd *cobra.Command, args []string) error {
	access, err := keyRingAccess()
	if err != nil {
		return err
	}

	spinner, cleanup := startSpinner(cmd, "Reading keyring...")
	defer cleanup()

	ids, err := workflows.KeyringList(context.Background(), workflows.KeyringListOptions{KeyRingAccess: access})
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}
	if len(ids) == 0 {
		spinner.FinalMSG = ui.Info.Sprint("ℹ") + " The keyring holds no secrets yet"
		return nil
	}

	spinner.Stop()
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
