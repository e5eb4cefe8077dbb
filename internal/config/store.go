package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Key names one of the engine's tunable options. The set is closed —
// exactly the three keys the core reads — and Store rejects anything
// else.
type Key string

const (
	KeyHeartbeatInterval               Key = "HeartbeatInterval"
	KeyTransactionMessageRetryInterval Key = "TransactionMessageRetryInterval"
	KeyTransactionMessageAttempts      Key = "TransactionMessageAttempts"
)

// Values is the engine-facing configuration snapshot, validated as a
// whole whenever any field changes.
type Values struct {
	HeartbeatInterval               time.Duration `validate:"min=0"`
	TransactionMessageRetryInterval time.Duration `validate:"required,min=1s"`
	TransactionMessageAttempts      int           `validate:"min=0"`
}

// Store is the engine's own configuration surface: a small set of
// named values, guarded by a lock independent of the engine's own
// lock, the way the original separates config_get/config_set from the
// message-pool state. Hosts read/write it directly; the engine reads
// it on every step.
type Store struct {
	mu       sync.RWMutex
	values   Values
	validate *validator.Validate
}

// NewStore seeds a Store from deployment configuration, validating the
// seed values up front so a misconfigured deployment fails fast at
// startup rather than degrading silently at runtime.
func NewStore(seed OCPPConfig) (*Store, error) {
	v := Values{
		HeartbeatInterval:               seed.HeartbeatInterval,
		TransactionMessageRetryInterval: seed.TransactionMessageRetryInterval,
		TransactionMessageAttempts:      seed.TransactionMessageAttempts,
	}
	s := &Store{validate: validator.New()}
	if err := s.validate.Struct(v); err != nil {
		return nil, fmt.Errorf("config: invalid seed: %w", err)
	}
	s.values = v
	return s, nil
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// HeartbeatInterval returns the current heartbeat cadence. A zero
// value disables heartbeat synthesis entirely.
func (s *Store) HeartbeatInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.HeartbeatInterval
}

// TransactionMessageRetryInterval returns the backoff unit used by the
// arithmetic retry schedule for transaction-related messages.
func (s *Store) TransactionMessageRetryInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.TransactionMessageRetryInterval
}

// TransactionMessageAttempts returns the retry budget for
// transaction-related messages before they are force-dropped.
func (s *Store) TransactionMessageAttempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.TransactionMessageAttempts
}

// Set validates and applies a single key's new value. It rejects
// unknown keys and values that violate Values' bounds, leaving the
// store unchanged on error.
func (s *Store) Set(key Key, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values
	switch key {
	case KeyHeartbeatInterval:
		d, ok := value.(time.Duration)
		if !ok {
			return fmt.Errorf("config: %s: want time.Duration, got %T", key, value)
		}
		next.HeartbeatInterval = d
	case KeyTransactionMessageRetryInterval:
		d, ok := value.(time.Duration)
		if !ok {
			return fmt.Errorf("config: %s: want time.Duration, got %T", key, value)
		}
		next.TransactionMessageRetryInterval = d
	case KeyTransactionMessageAttempts:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("config: %s: want int, got %T", key, value)
		}
		next.TransactionMessageAttempts = n
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}

	if err := s.validate.Struct(next); err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	s.values = next
	return nil
}
