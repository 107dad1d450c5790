package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/PolarWolf314/storjcli/internal/utils"
	"github.com/PolarWolf314/storjcli/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	uploadNoCreate   bool
	downloadOutput   string
	downloadForce    bool
	removeKeepSecret bool

	FilesCmd = &cobra.Command{
		Use:   "files",
		Short: "Upload, download and manage files in a bucket",
		Long: `Buckets and files can be given by name or by their 24 character id.
With duplicate names the first one the bridge lists wins.`,
	}

	filesListCmd = &cobra.Command{
		Use:     "list <bucket>",
		Aliases: []string{"ls"},
		Short:   "List the files in a bucket",
		Args:    cobra.ExactArgs(1),
		RunE:    runFilesList,
	}

	filesUploadCmd = &cobra.Command{
		Use:   "upload <bucket> <path...>",
		Short: "Encrypt and upload files",
		Long: `Encrypts each file with a fresh secret and uploads it to the bucket.
The secret is stored in the keyring under the new file id.

Paths may be files, directories or glob patterns (** matches across
directories). The bucket is created if no bucket has that name, unless
--no-create is given.

Examples:
  storjcli files upload photos cat.jpg
  storjcli files upload docs "reports/**/*.pdf"
  storjcli files upload 5f1e2d3c4b5a69788796a5b4 notes.txt --no-create`,
		Args: cobra.MinimumNArgs(2),
		RunE: runFilesUpload,
	}

	filesDownloadCmd = &cobra.Command{
		Use:   "download <bucket> <file>",
		Short: "Download and decrypt a file",
		Args:  cobra.ExactArgs(2),
		RunE:  runFilesDownload,
	}

	filesCatCmd = &cobra.Command{
		Use:   "cat <bucket> <file>",
		Short: "Decrypt a file to stdout",
		Args:  cobra.ExactArgs(2),
		RunE:  runFilesCat,
	}

	filesRemoveCmd = &cobra.Command{
		Use:     "remove <bucket> <file>",
		Aliases: []string{"rm"},
		Short:   "Remove a file and forget its secret",
		Args:    cobra.ExactArgs(2),
		RunE:    runFilesRemove,
	}
)

func init() {
	filesUploadCmd.Flags().BoolVar(&uploadNoCreate, "no-create", false, "fail instead of creating a missing bucket")
	filesDownloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "destination file or directory")
	filesDownloadCmd.Flags().BoolVarP(&downloadForce, "force", "f", false, "overwrite an existing output file")
	filesRemoveCmd.Flags().BoolVar(&removeKeepSecret, "keep-secret", false, "leave the file's secret in the keyring")

	FilesCmd.AddCommand(filesListCmd)
	FilesCmd.AddCommand(filesUploadCmd)
	FilesCmd.AddCommand(filesDownloadCmd)
	FilesCmd.AddCommand(filesCatCmd)
	FilesCmd.AddCommand(filesRemoveCmd)
}

func runFilesList(cmd *cobra.Command, args []string) error {
	spinner, cleanup := startSpinner(cmd, "Listing files...")
	defer cleanup()

	result, err := workflows.ListFiles(context.Background(), newBridgeClient(), args[0])
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	if len(result.Files) == 0 {
		spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No files in " + ui.Highlight.Sprint(args[0])
		return nil
	}

	spinner.Stop()
	printFiles(cmd.OutOrStdout(), result.Files)
	return nil
}

func printFiles(w io.Writer, files []bridge.File) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tCREATED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Filename, ui.Bytes(f.Size), f.Mimetype, ui.Ago(f.Created))
	}
	_ = tw.Flush()
}

func runFilesUpload(cmd *cobra.Command, args []string) error {
	access, err := keyRingAccess()
	if err != nil {
		return err
	}

	spinner, cleanup := startSpinner(cmd, "Encrypting and uploading...")
	defer cleanup()

	results, err := workflows.UploadMany(context.Background(), newBridgeClient(), workflows.UploadManyOptions{
		Bucket:         args[0],
		Patterns:       args[1:],
		CreateBucket:   !uploadNoCreate,
		BucketDefaults: bucketDefaults(),
		KeyRingAccess:  access,
	})

	var msg string
	sources := make([]string, 0, len(results))
	for i, r := range results {
		sources = append(sources, r.Source)
		if i == 0 && r.BucketCreated {
			msg += success("Created bucket %s %s", ui.Highlight.Sprint(args[0]), ui.ID.Sprint(r.BucketID)) + "\n"
		}
		if r.File != nil {
			msg += success("Uploaded %s -> %s %s %s", ui.Path.Sprint(r.Source), ui.Highlight.Sprint(r.File.Filename),
				ui.ID.Sprint(r.File.ID), ui.Muted.Sprint(ui.Bytes(r.Size))) + "\n"
		}
	}
	if len(sources) > 0 {
		Logger.Infof("Uploaded files:%s", utils.FormatPaths(sources))
	}
	if err != nil {
		reportedErr := fail(&spinner.FinalMSG, err)
		spinner.FinalMSG = msg + spinner.FinalMSG
		return reportedErr
	}

	spinner.FinalMSG = msg + ui.Muted.Sprint(fmt.Sprintf("%d files uploaded", len(results)))
	return nil
}

func streamOptions(args []string, access workflows.KeyRingAccess) workflows.StreamOptions {
	return workflows.StreamOptions{
		Bucket:        args[0],
		Filename:      args[1],
		KeyRingAccess: access,
	}
}

func runFilesDownload(cmd *cobra.Command, args []string) error {
	access, err := keyRingAccess()
	if err != nil {
		return err
	}

	spinner, cleanup := startSpinner(cmd, "Downloading and decrypting...")
	defer cleanup()

	result, err := workflows.Download(context.Background(), newBridgeClient(), workflows.DownloadOptions{
		StreamOptions: streamOptions(args, access),
		Output:        downloadOutput,
		Overwrite:     downloadForce,
	})
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	spinner.FinalMSG = success("Downloaded %s to %s %s", ui.Highlight.Sprint(args[1]), ui.Path.Sprint(result.Path), ui.Muted.Sprint(ui.Bytes(result.Size)))
	return nil
}

// runFilesCat writes plaintext to stdout, so it never starts a spinner and
// reports errors on stderr.
func runFilesCat(cmd *cobra.Command, args []string) error {
	access, err := keyRingAccess()
	if err != nil {
		return err
	}

	n, err := workflows.Cat(context.Background(), newBridgeClient(), streamOptions(args, access), cmd.OutOrStdout())
	if err != nil {
		Logger.Errorf("%v", err)
		fmt.Fprintln(cmd.ErrOrStderr(), formatError(err))
		return reported(err)
	}
	Logger.Debugf("Wrote %d bytes", n)
	return nil
}

func runFilesRemove(cmd *cobra.Command, args []string) error {
	access := workflows.KeyRingAccess{DataDir: settings.DataDir}
	if !removeKeepSecret {
		var err error
		if access, err = keyRingAccess(); err != nil {
			return err
		}
	}

	spinner, cleanup := startSpinner(cmd, "Removing file...")
	defer cleanup()

	result, err := workflows.RemoveFile(context.Background(), newBridgeClient(), workflows.RemoveFileOptions{
		Bucket:        args[0],
		File:          args[1],
		KeepSecret:    removeKeepSecret,
		KeyRingAccess: access,
	})
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	spinner.FinalMSG = success("Removed %s %s from %s", ui.Highlight.Sprint(args[1]), ui.ID.Sprint(result.FileID), ui.Highlight.Sprint(args[0]))
	if result.SecretRemoved {
		spinner.FinalMSG += "\n" + ui.Muted.Sprint("secret forgotten")
	}
	return nil
}
