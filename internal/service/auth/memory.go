package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aivy-lab/aivy/backend/internal/model/account"
)

// MemoryProvider implements Provider with an in-memory account table. It
// backs tests and credential-less development runs; accounts vanish when the
// process exits.
type MemoryProvider struct {
	mu       sync.RWMutex
	accounts map[string]memoryAccount
}

type memoryAccount struct {
	identity account.Identity
	password string
}

// NewMemoryProvider returns an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{accounts: make(map[string]memoryAccount)}
}

// CreateUser stores the account keyed by lowercased email.
func (p *MemoryProvider) CreateUser(_ context.Context, email, password string) (account.Identity, error) {
	key := strings.ToLower(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[key]; exists {
		return account.Identity{}, ErrEmailInUse
	}

	identity := account.Identity{UID: uuid.NewString(), Email: email}
	p.accounts[key] = memoryAccount{identity: identity, password: password}
	return identity, nil
}

// GetUserByEmail looks up a stored account. The password is kept but never
// consulted here, matching the hosted provider's lookup call.
func (p *MemoryProvider) GetUserByEmail(_ context.Context, email string) (account.Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.accounts[strings.ToLower(email)]
	if !ok {
		return account.Identity{}, ErrAccountNotFound
	}
	return entry.identity, nil
}
