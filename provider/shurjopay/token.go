package shurjopay

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mstgnz/shurjopay/infra/logger"
)

// Credential is a bearer token issued by the token endpoint
type Credential struct {
	Token      string
	TokenType  string
	StoreID    int
	ExecuteURL string
	CreatedAt  string
	ExpiresIn  int64
}

// Authorization is the value of the Authorization header for this credential
func (c Credential) Authorization() string {
	return c.TokenType + " " + c.Token
}

// AcquireFunc fetches a fresh credential from the gateway
type AcquireFunc func(ctx context.Context) (Credential, error)

// TokenOption configures a TokenManager
type TokenOption func(*TokenManager)

// WithTokenClock replaces time.Now
func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithServerOffset sets how far the gateway clock runs ahead of UTC
func WithServerOffset(offset time.Duration) TokenOption {
	return func(m *TokenManager) {
		m.offset = offset
	}
}

// TokenManager owns the active credential. Concurrent callers that find it
// missing or stale share a single acquisition.
type TokenManager struct {
	acquire AcquireFunc
	offset  time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	current   *Credential
	expiresAt time.Time
	hasExpiry bool

	flight singleflight.Group
}

// NewTokenManager creates a manager that obtains credentials through acquire
func NewTokenManager(acquire AcquireFunc, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		acquire: acquire,
		offset:  DefaultServerUTCOffset,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValid returns a token that is valid now, acquiring one if needed
func (m *TokenManager) EnsureValid(ctx context.Context) (string, error) {
	cred, err := m.Credential(ctx)
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

// Credential returns the active credential when it is still valid and
// otherwise replaces it. At most one acquisition happens per call.
func (m *TokenManager) Credential(ctx context.Context) (Credential, error) {
	if cred, ok := m.valid(); ok {
		return cred, nil
	}
	return m.refresh(ctx, false)
}

// Refresh discards the active credential and acquires a new one
func (m *TokenManager) Refresh(ctx context.Context) (Credential, error) {
	return m.refresh(ctx, true)
}

// Invalidate drops the active credential
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.expiresAt = time.Time{}
	m.hasExpiry = false
}

// Held reports whether a credential is held, valid or not. The credential
// itself is only handed out through Credential and EnsureValid.
func (m *TokenManager) Held() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

func (m *TokenManager) held() (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Credential{}, false
	}
	return *m.current, true
}

// ExpiresAt returns the expiry of the held credential in gateway wall clock.
// ok is false when there is no credential or its expiry is unknown.
func (m *TokenManager) ExpiresAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt, m.current != nil && m.hasExpiry
}

// valid reports whether the held credential may still be used. The
// comparison is made in the gateway's clock: now in UTC plus the offset.
func (m *TokenManager) valid() (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || !m.hasExpiry {
		return Credential{}, false
	}
	if m.now().UTC().Add(m.offset).After(m.expiresAt) {
		return Credential{}, false
	}
	return *m.current, true
}

func (m *TokenManager) refresh(ctx context.Context, force bool) (Credential, error) {
	// The acquisition outlives any single caller; each caller still stops
	// waiting when its own context ends.
	flightCtx := context.WithoutCancel(ctx)

	// A forced refresh never joins a lazy acquisition, which may hand back
	// the credential it found still valid.
	key := "credential"
	if force {
		key = "refresh"
	}

	ch := m.flight.DoChan(key, func() (any, error) {
		if !force {
			if cred, ok := m.valid(); ok {
				return cred, nil
			}
		}

		if held, ok := m.held(); ok {
			logger.Info("shurjopay: token expired, acquiring a new one", logger.LogContext{
				Provider: providerName,
				Fields:   map[string]any{"created_at": held.CreatedAt, "expires_in": held.ExpiresIn},
			})
		}
		m.Invalidate()

		cred, err := m.acquire(flightCtx)
		if err != nil {
			return Credential{}, err
		}
		m.install(cred)
		return cred, nil
	})

	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

func (m *TokenManager) install(cred Credential) {
	expiresAt, ok := TokenExpiry(cred.CreatedAt, cred.ExpiresIn)
	if !ok {
		logger.Warn("shurjopay: token has no usable expiry and will be re-acquired on next use", logger.LogContext{
			Provider: providerName,
			Fields:   map[string]any{"token_create_time": cred.CreatedAt, "expires_in": cred.ExpiresIn},
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &cred
	m.expiresAt = expiresAt
	m.hasExpiry = ok
}
