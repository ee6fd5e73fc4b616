package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

// translate maps gorm errors onto the domain sentinels. It relies on the
// connection being opened with TranslateError so drivers report
// gorm.ErrDuplicatedKey for unique violations.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}
