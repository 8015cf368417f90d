package auth

import (
	"context"
	"errors"

	"github.com/aivy-lab/aivy/backend/internal/model/account"
)

// Provider errors, normalized from whatever the identity backend reports.
var (
	ErrEmailInUse      = errors.New("email already in use")
	ErrInvalidArgument = errors.New("invalid email or password format")
	ErrAccountNotFound = errors.New("account not found")
)

// Provider abstracts the hosted identity service. Implementations translate
// their native error codes into the sentinel errors above; anything else is
// returned wrapped and treated as a provider outage by the caller.
type Provider interface {
	// CreateUser registers a durable account. It does not log the user in.
	CreateUser(ctx context.Context, email, password string) (account.Identity, error)
	// GetUserByEmail resolves an existing account by email address.
	GetUserByEmail(ctx context.Context, email string) (account.Identity, error)
}
