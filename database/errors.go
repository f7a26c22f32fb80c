package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kishan2613/Sarthi/apperror"
)

// TransientTransactionLabel marks errors after which the whole transaction
// can be rerun, such as a write conflict with a concurrent transaction.
const TransientTransactionLabel = "TransientTransactionError"

// TranslateError maps driver errors onto the application taxonomy. what
// names the entity for NotFound and Conflict messages, e.g. "slot".
func TranslateError(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	var le mongo.LabeledError
	if errors.As(err, &le) && le.HasErrorLabel(TransientTransactionLabel) {
		return apperror.Wrap(err, apperror.CodeUnavailable, what+" is busy, retry the request")
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperror.NotFound(what + " not found")
	case mongo.IsDuplicateKeyError(err):
		return apperror.Wrap(err, apperror.CodeConflict, what+" already exists")
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return apperror.Wrap(err, apperror.CodeTimeout, "database operation timed out")
	case errors.Is(err, context.Canceled):
		return apperror.Wrap(err, apperror.CodeUnavailable, "request cancelled")
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return apperror.Wrap(err, apperror.CodeUnavailable, "database unavailable")
	}
	return apperror.Wrap(err, apperror.CodeInternal, "database error")
}
