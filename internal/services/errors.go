package services

import (
	stderrors "errors"

	"github.com/abrezinsky/discround/internal/errors"
	"github.com/abrezinsky/discround/internal/repository"
)

// ErrCatalogNotFound is returned by Catalog implementations when a tournament
// or course does not exist.
var ErrCatalogNotFound = stderrors.New("catalog entry not found")

// storageError translates repository sentinels into classified errors.
// what names the missing thing in NotFound messages.
func storageError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(what + " not found")
	case stderrors.Is(err, repository.ErrConflict):
		return errors.Conflict("an active session already exists for this round")
	}

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.Internal(err)
}

// catalogError translates catalog failures into classified errors
func catalogError(err error, what string) error {
	if stderrors.Is(err, ErrCatalogNotFound) {
		return errors.NotFound(what + " not found")
	}
	return errors.Wrap(err, errors.ErrInternal, "catalog lookup failed")
}
