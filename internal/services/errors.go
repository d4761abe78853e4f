package services

import (
	"errors"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
)

// storeErr converts a repository failure into the service error contract.
// AppErrors pass through untouched so transaction callbacks can return them.
func storeErr(op, notFound string, err error) error {
	var ae *utils.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, utils.ErrNotFound):
		return utils.E(utils.CodeNotFound, op, notFound, err)
	}
	return utils.E(utils.CodeInternal, op, "internal error", err)
}

// invalid wraps a domain error (ValidationError, TooManyFilesError, ...) as a 422.
func invalid(op string, err error) error { return utils.Invalid(op, err) }

func fieldError(op, field, msg string) error {
	return utils.Invalid(op, utils.NewValidationError(field, msg))
}
