// Package identity resolves callers and the extension paths they may publish.
package identity

import (
	"context"
	"strings"
	"sync"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Identity is an authenticated caller.
type Identity struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	// PayoutAccount is the connected payment account, empty when the
	// caller cannot receive payouts.
	PayoutAccount string `json:"payoutAccount,omitempty" yaml:"payout_account,omitempty"`
}

// CanMonetize reports whether the caller may publish premium extensions.
func (i Identity) CanMonetize() bool { return i.PayoutAccount != "" }

// Resolver maps a bearer token to an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// StaticResolver resolves tokens from a table that can be swapped at runtime.
type StaticResolver struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

// NewStaticResolver returns a resolver over tokens. Blank tokens are ignored.
func NewStaticResolver(tokens map[string]Identity) *StaticResolver {
	return &StaticResolver{tokens: cleanTokens(tokens)}
}

// Replace swaps the whole token table. Tokens missing from tokens stop
// resolving immediately.
func (r *StaticResolver) Replace(tokens map[string]Identity) {
	m := cleanTokens(tokens)
	r.mu.Lock()
	r.tokens = m
	r.mu.Unlock()
}

func cleanTokens(tokens map[string]Identity) map[string]Identity {
	m := make(map[string]Identity, len(tokens))
	for tok, id := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || id.ID == "" {
			continue
		}
		m[tok] = id
	}
	return m
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, derrors.AuthError("missing bearer token").Build()
	}
	r.mu.RLock()
	id, ok := r.tokens[token]
	r.mu.RUnlock()
	if !ok {
		return Identity{}, derrors.AuthError("unknown bearer token").Build()
	}
	return id, nil
}

// Len returns the number of known tokens.
func (r *StaticResolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
