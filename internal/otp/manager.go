package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const (
	codeMin     = 100000
	codeMax     = 999999
	maxAttempts = 3
)

// Result reports the outcome of a verification attempt.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type entry struct {
	code        string
	expiresAt   time.Time
	attempts    int
	maxAttempts int
}

// Manager issues and verifies one-time codes keyed by email. Entries are
// swept lazily on access; there is no background timer.
type Manager struct {
	mu       sync.Mutex
	entries  map[string]entry
	now      func() time.Time
	generate func() string
}

// Option customizes a Manager, mainly for deterministic tests.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithGenerator overrides the code generator.
func WithGenerator(generate func() string) Option {
	return func(m *Manager) { m.generate = generate }
}

// NewManager constructs an OTP manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		entries:  make(map[string]entry),
		now:      time.Now,
		generate: generateCode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create generates a fresh code for key, replacing any prior entry, and
// sweeps expired entries while it holds the lock. The caller delivers the
// returned code to the user.
func (m *Manager) Create(key string, ttl time.Duration) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.generate()
	m.entries[key] = entry{
		code:        code,
		expiresAt:   m.now().Add(ttl),
		attempts:    0,
		maxAttempts: maxAttempts,
	}
	m.sweepLocked()
	return code
}

// Resend is a full reset of code, expiry, and attempts for key.
func (m *Manager) Resend(key string, ttl time.Duration) string {
	return m.Create(key, ttl)
}

// HasPending reports whether key has a live code. An expired entry found
// here is deleted.
func (m *Manager) HasPending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return false
	}
	return true
}

// RemainingTime returns whole seconds until key's code expires, clamped to
// zero. Keys without an entry report zero.
func (m *Manager) RemainingTime(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return 0
	}
	remaining := e.expiresAt.Sub(m.now())
	if remaining <= 0 {
		return 0
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	return secs
}

// Verify checks the supplied code for key. The entry is deleted on success,
// on expiry, and on the failed attempt that exhausts the attempt budget.
func (m *Manager) Verify(key, code string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Result{Valid: false, Message: "OTP not found or expired"}
	}

	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return Result{Valid: false, Message: "OTP has expired"}
	}

	if e.code != code {
		e.attempts++
		if e.attempts >= e.maxAttempts {
			delete(m.entries, key)
			return Result{Valid: false, Message: "Maximum attempts exceeded. Please request a new OTP."}
		}
		m.entries[key] = e
		remaining := e.maxAttempts - e.attempts
		return Result{Valid: false, Message: fmt.Sprintf("Invalid OTP. %d attempts remaining.", remaining)}
	}

	delete(m.entries, key)
	return Result{Valid: true, Message: "OTP verified successfully"}
}

func (m *Manager) sweepLocked() {
	now := m.now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		// crypto/rand failing is unrecoverable for auth purposes.
		panic(fmt.Sprintf("otp: read random: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin)
}
