package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/PolarWolf314/storjcli/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	bucketStorage  int
	bucketTransfer int

	BucketsCmd = &cobra.Command{
		Use:   "buckets",
		Short: "List, create and remove buckets",
	}

	bucketsListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the buckets of the account",
		Args:    cobra.NoArgs,
		RunE:    runBucketsList,
	}

	bucketsCreateCmd = &cobra.Command{
		Use:   "create <name>",
		Short: "Create a bucket",
		Long: `Creates a bucket with the given name.

Quotas default to [bucket] storage/transfer in config.toml, or 30 GB and
10 GB. Names must not contain a path separator or look like a bucket id.

Examples:
  storjcli buckets create photos
  storjcli buckets create backups --storage 100 --transfer 20`,
		Args: cobra.ExactArgs(1),
		RunE: runBucketsCreate,
	}

	bucketsRemoveCmd = &cobra.Command{
		Use:     "remove <bucket>",
		Aliases: []string{"rm"},
		Short:   "Remove a bucket and forget the secrets of its files",
		Args:    cobra.ExactArgs(1),
		RunE:    runBucketsRemove,
	}
)

func init() {
	bucketsCreateCmd.Flags().IntVar(&bucketStorage, "storage", 0, "storage quota in GB")
	bucketsCreateCmd.Flags().IntVar(&bucketTransfer, "transfer", 0, "transfer quota in GB")

	BucketsCmd.AddCommand(bucketsListCmd)
	BucketsCmd.AddCommand(bucketsCreateCmd)
	BucketsCmd.AddCommand(bucketsRemoveCmd)
}

func runBucketsList(cmd *cobra.Command, args []string) error {
	spinner, cleanup := startSpinner(cmd, "Listing buckets...")
	defer cleanup()

	buckets, err := workflows.ListBuckets(context.Background(), newBridgeClient())
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}
	Logger.Debugf("Bridge returned %d buckets", len(buckets))

	if len(buckets) == 0 {
		spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No buckets yet. Create one with " + ui.Code.Sprint("storjcli buckets create <name>")
		return nil
	}

	spinner.Stop()
	printBuckets(cmd.OutOrStdout(), buckets)
	return nil
}

func printBuckets(w io.Writer, buckets []bridge.Bucket) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTORAGE\tTRANSFER\tCREATED")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, ui.Quota(b.Storage), ui.Quota(b.Transfer), ui.Ago(b.Created))
	}
	_ = tw.Flush()
}

func runBucketsCreate(cmd *cobra.Command, args []string) error {
	spinner, cleanup := startSpinner(cmd, "Creating bucket...")
	defer cleanup()

	opts := bucketDefaults()
	opts.Name = args[0]
	if bucketStorage > 0 {
		opts.Storage = bucketStorage
	}
	if bucketTransfer > 0 {
		opts.Transfer = bucketTransfer
	}

	b, err := workflows.CreateBucket(context.Background(), newBridgeClient(), opts)
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	spinner.FinalMSG = success("Created bucket %s %s", ui.Highlight.Sprint(b.Name), ui.ID.Sprint(b.ID)) + "\n" +
		ui.Muted.Sprint(fmt.Sprintf("storage %s, transfer %s", ui.Quota(b.Storage), ui.Quota(b.Transfer)))
	return nil
}

func runBucketsRemove(cmd *cobra.Command, args []string) error {
	access, err := keyRingAccess()
	if err != nil {
		return err
	}
	if access.Password == "" {
		Logger.WarnfAlways("No keyring password; secrets of the removed files stay in the keyring")
	}

	spinner, cleanup := startSpinner(cmd, "Removing bucket...")
	defer cleanup()

	result, err := workflows.RemoveBucket(context.Background(), newBridgeClient(), workflows.RemoveBucketOptions{
		Bucket:        args[0],
		KeyRingAccess: access,
	})
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	spinner.FinalMSG = success("Removed bucket %s %s", ui.Highlight.Sprint(args[0]), ui.ID.Sprint(result.BucketID))
	if result.Files > 0 {
		spinner.FinalMSG += "\n" + ui.Muted.Sprint(fmt.Sprintf("%d files, %d secrets forgotten", result.Files, result.SecretsRemoved))
	}
	return nil
}
