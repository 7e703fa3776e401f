package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidLink        = errors.New("invalid ingredient link")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrIngredientInUse    = errors.New("ingredient is used by cocktails")
	ErrInvalidIngredient  = errors.New("invalid ingredient")
	ErrInvalidCocktail    = errors.New("invalid cocktail")
	ErrInvalidTag         = errors.New("invalid tag")
)

// InvalidLinkError is returned when a base link would break the one-level
// hierarchy: a base that is itself branded, or a branded item that already
// has branded items of its own.
type InvalidLinkError struct {
	IngredientID     uint
	BaseIngredientID uint
	Reason           string
}

func (e *InvalidLinkError) Error() string {
	return fmt.Sprintf("cannot link ingredient %d to base %d: %s", e.IngredientID, e.BaseIngredientID, e.Reason)
}

func (e *InvalidLinkError) Is(target error) bool {
	return target == ErrInvalidLink
}

// StorageError wraps a failure of the underlying record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// wrap converts gorm errors into the catalog taxonomy. Domain errors pass
// through untouched.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidLink),
		errors.Is(err, ErrIngredientInUse),
		errors.Is(err, ErrInvalidIngredient),
		errors.Is(err, ErrInvalidCocktail),
		errors.Is(err, ErrInvalidTag),
		errors.Is(err, ErrStorageUnavailable):
		return err
	default:
		return &StorageError{Op: op, Err: err}
	}
}
