// Package service implements the item and account operations on top of the
// store, independent of the HTTP transport.
package service

import (
	"errors"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/store"
)

// FileStore persists uploaded images and returns the stored filename.
type FileStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// checkID rejects ids that cannot name a record.
func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid "+what+" id", err)
	}
	return nil
}

// storeError converts persistence failures into application errors.
func storeError(message string, err error) error {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return apperr.Wrap(apperr.CodeValidation, message, err).WithDetail("fields", ve.Violations)
	}
	if errors.Is(err, store.ErrDuplicateEmail) {
		return apperr.Wrap(apperr.CodeConflict, "Email already registered", err).WithDetail("field", "email")
	}
	return apperr.Wrap(apperr.CodeInternal, message, err)
}
