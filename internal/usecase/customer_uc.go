package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
)

type CustomerUC struct {
	Customers domain.CustomerRepo
}

type Profile struct {
	UserID   string           `json:"userId"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	IsAdmin  bool             `json:"isAdmin"`
	Customer *domain.Customer `json:"customer,omitempty"`
}

// Register records an authenticated identity in the customer directory.
func (uc *CustomerUC) Register(ctx context.Context, id *domain.Identity) (*domain.Customer, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: identity has no email", domain.ErrValidation)
	}
	ext := id.UserID
	return uc.Customers.Register(ctx, &domain.Customer{
		ExternalID: &ext,
		Email:      email,
		Name:       id.DisplayName,
		IsAdmin:    id.IsAdmin,
	})
}

func (uc *CustomerUC) Profile(ctx context.Context, actor *domain.Identity) (*Profile, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	p := &Profile{UserID: actor.UserID, Email: actor.Email, Name: actor.DisplayName, IsAdmin: actor.IsAdmin}
	c, err := uc.Customers.FindByExternalID(ctx, actor.UserID)
	switch {
	case err == nil:
		p.Customer = c
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return p, nil
}
