package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/PolarWolf314/storjcli/internal/utils"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// startSpinner starts a spinner on stderr unless verbose or debug output is
// on, or stderr is not a terminal. The returned cleanup stops it and prints
// s.FinalMSG to the command's stdout.
//
// spinner.FinalMSG values do NOT need trailing newlines; cleanup adds one.
func startSpinner(cmd *cobra.Command, message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	animate := !verbose && !debug && utils.IsStdoutTerminal()
	if animate {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		if animate {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if animate {
			s.Stop()
		}
		if finalMsg != "" {
			fmt.Fprint(cmd.OutOrStdout(), finalMsg)
		}
	}

	return s, cleanup
}

// success renders a checkmark line.
func success(format string, a ...any) string {
	return ui.Success.Sprint("✓") + " " + fmt.Sprintf(format, a...)
}

// hint renders a follow-up suggestion line.
func hint(format string, a ...any) string {
	return ui.Info.Sprint("→") + " " + fmt.Sprintf(format, a...)
}
