package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Filename string
	Content  io.Reader
}

func requireUser(actor *domain.Identity) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor *domain.Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.Admin() {
		return domain.ErrPermissionDenied
	}
	return nil
}

// storeScope returns the store an admin is limited to, or nil for a
// global admin (one who owns no store).
func storeScope(ctx context.Context, stores domain.StoreRepo, actor *domain.Identity) (*uuid.UUID, error) {
	if stores == nil || !actor.Admin() {
		return nil, nil
	}
	s, err := stores.FindByOwner(ctx, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s.ID, nil
}
