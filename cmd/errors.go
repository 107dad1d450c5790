package cmd

import (
	"errors"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/ui"
)

// reportedError carries an error whose message was already shown to the
// user, so Execute only sets the exit code.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error { return reportedError{err: err} }

func isReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// formatError maps an error class to a user-facing message.
func formatError(err error) string {
	cross := ui.Error.Sprint("✗") + " "

	switch {
	case errors.Is(err, kerrors.ErrUnauthorized):
		return cross + "The bridge rejected your credentials\n" +
			hint("Check %s and %s", ui.Code.Sprint("BRIDGE_USER"), ui.Code.Sprint("BRIDGE_PASS"))

	case errors.Is(err, kerrors.ErrInvalidToken):
		return cross + "The bridge refused the transfer token: " + err.Error()

	case errors.Is(err, kerrors.ErrTransport):
		return cross + "Could not talk to the bridge at " + ui.Path.Sprint(settingsBridgeURL()) + "\n" +
			ui.Muted.Sprint(err.Error())

	case errors.Is(err, kerrors.ErrEmptyPassword):
		return cross + "No keyring password given\n" +
			hint("Set %s or run from a terminal to be prompted", ui.Code.Sprint("STORJ_KEYPASS"))

	case errors.Is(err, kerrors.ErrWrongPassword):
		return cross + "Wrong keyring password"

	case errors.Is(err, kerrors.ErrKeyRingLocked):
		return cross + "The keyring is in use by another storjcli process\n" +
			hint("Wait for it to finish and try again")

	case errors.Is(err, kerrors.ErrSecretNotSaved):
		return cross + err.Error() + "\n" +
			hint("The uploaded file cannot be decrypted; remove it with %s", ui.Code.Sprint("storjcli files remove"))

	case errors.Is(err, kerrors.ErrSecretNotFound):
		return cross + "This file's secret is not in the keyring\n" +
			hint("Only files uploaded with this keyring can be downloaded")

	case errors.Is(err, kerrors.ErrKeyRing):
		return cross + "Keyring error: " + err.Error()

	case errors.Is(err, kerrors.ErrNoBuckets):
		return cross + "This account has no buckets\n" +
			hint("Create one with %s", ui.Code.Sprint("storjcli buckets create <name>"))

	case errors.Is(err, kerrors.ErrBucketNotFound):
		return cross + "Bucket not found: " + err.Error()

	case errors.Is(err, kerrors.ErrNoFilesInBucket):
		return cross + "The bucket is empty"

	case errors.Is(err, kerrors.ErrFileNotFound):
		return cross + "File not found: " + err.Error()

	case errors.Is(err, kerrors.ErrRemoteNotFound):
		return cross + "The bridge has no such bucket or file"

	case errors.Is(err, kerrors.ErrInvalidBucketName):
		return cross + err.Error()

	case errors.Is(err, kerrors.ErrLocalFileNotFound), errors.Is(err, kerrors.ErrNoFilesMatched):
		return cross + err.Error()

	case errors.Is(err, kerrors.ErrOutputExists):
		return cross + err.Error() + "\n" + hint("Use %s to overwrite", ui.Flag.Sprint("--force"))

	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return cross + err.Error()

	default:
		return cross + err.Error()
	}
}

// fail sets the spinner's final message and marks err as reported.
func fail(finalMsg *string, err error) error {
	Logger.Errorf("%v", err)
	*finalMsg = formatError(err)
	return reported(err)
}

func settingsBridgeURL() string {
	if settings == nil {
		return ""
	}
	return settings.BridgeURL
}
