package services

import (
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/docstore"
)

// storeErr maps a store error to the client-facing taxonomy. what names the failed operation.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound
	case errors.Is(err, docstore.ErrDuplicate):
		return apperr.Conflict.Wrap(err)
	default:
		return apperr.UpstreamFailure.Wrap(errors.Wrap(err, what))
	}
}
