package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/store"
)

// outcomeError turns an operation outcome into the command's error.
// It is nil for Success.
func outcomeError(f *OutputFormatter, what string, status result.Status, err error, details any) error {
	var verr *dataset.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = f.Error(ErrCodeInvalid, verr.Error(), verr.Fields)
		return WrapExitError(ExitCommandError, what, err)
	case store.IsFatal(err):
		msg := fmt.Sprintf("%s: %s, retry the command", what, store.StatusOf(err))
		_ = f.Error(ErrCodeRetryable, msg, nil)
		return WrapExitError(ExitRetry, msg, err)
	case err != nil:
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, what, err)
	case status != result.Success:
		msg := fmt.Sprintf("%s: %s", what, status)
		_ = f.Error(ErrCodeStatus, msg, details)
		return NewExitError(ExitFailure, msg)
	}
	return nil
}
