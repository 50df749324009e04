package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Driver operations.
var (
	// ErrCredentialsMissing means a download was attempted but no dataset
	// credentials could be resolved from any source.
	ErrCredentialsMissing = errors.New("dataset credentials missing")

	// ErrNoInputFound means the input directory held no loadable files
	// after the download stage finished.
	ErrNoInputFound = errors.New("no input files found")

	// ErrTransformTimeout means the external transform tool exceeded its
	// wall-clock budget and was killed.
	ErrTransformTimeout = errors.New("transform timed out")

	// ErrRunInProgress means another pipeline operation currently holds the
	// driver. Callers should retry after the in-flight run finishes.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")

	// ErrActionNotAllowed means the requested action is illegal in the
	// driver's current status.
	ErrActionNotAllowed = errors.New("action not allowed in current status")
)

// TransformError reports a transform invocation that exited non-zero. The
// combined stdout and stderr of the tool is preserved for display.
type TransformError struct {
	ExitCode int
	Output   string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform failed with exit code %d", e.ExitCode)
}

// StorageAccessError wraps a failure to inspect or mutate persisted storage.
type StorageAccessError struct {
	Op  string
	Err error
}

func (e *StorageAccessError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageAccessError) Unwrap() error {
	return e.Err
}

// DownloadError wraps a dataset download failure. The underlying message is
// surfaced verbatim to the user; downloads are never retried at this level.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %v", e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
