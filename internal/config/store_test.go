package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSeed() OCPPConfig {
	return OCPPConfig{
		HeartbeatInterval:               30 * time.Second,
		TransactionMessageRetryInterval: 5 * time.Second,
		TransactionMessageAttempts:      3,
	}
}

func TestNewStore_RejectsInvalidSeed(t *testing.T) {
	seed := validSeed()
	seed.TransactionMessageRetryInterval = 0
	_, err := NewStore(seed)
	assert.Error(t, err)
}

func TestStore_SnapshotReflectsSeed(t *testing.T) {
	s, err := NewStore(validSeed())
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 30*time.Second, snap.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, snap.TransactionMessageRetryInterval)
	assert.Equal(t, 3, snap.TransactionMessageAttempts)
}

func TestStore_Set_UpdatesSingleKey(t *testing.T) {
	s, err := NewStore(validSeed())
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyHeartbeatInterval, 45*time.Second))
	assert.Equal(t, 45*time.Second, s.HeartbeatInterval())
	assert.Equal(t, 5*time.Second, s.TransactionMessageRetryInterval())

	require.NoError(t, s.Set(KeyTransactionMessageAttempts, 7))
	assert.Equal(t, 7, s.TransactionMessageAttempts())
}

func TestStore_Set_RejectsWrongType(t *testing.T) {
	s, err := NewStore(validSeed())
	require.NoError(t, err)

	err = s.Set(KeyHeartbeatInterval, "not a duration")
	assert.Error(t, err)
	assert.Equal(t, 30*time.Second, s.HeartbeatInterval(), "rejected write must leave the store unchanged")
}

func TestStore_Set_RejectsInvalidValue(t *testing.T) {
	s, err := NewStore(validSeed())
	require.NoError(t, err)

	err = s.Set(KeyTransactionMessageRetryInterval, time.Duration(0))
	assert.Error(t, err)
	assert.Equal(t, 5*time.Second, s.TransactionMessageRetryInterval())
}

func TestStore_Set_RejectsUnknownKey(t *testing.T) {
	s, err := NewStore(validSeed())
	require.NoError(t, err)

	err = s.Set(Key("Bogus"), 1)
	assert.Error(t, err)
}
