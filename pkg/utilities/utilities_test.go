package utilities

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("Pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, "Pass1234", hash)
	assert.True(t, h.Verify(hash, "Pass1234"))
	assert.False(t, h.Verify(hash, "pass1234"))
	assert.False(t, h.Verify("", "Pass1234"))
}

func TestSnowflakeIDsAreUnique(t *testing.T) {
	require.NoError(t, InitSnowflake(3))
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := NewSnowflakeID()
		require.False(t, seen[id], "duplicate id %d", id)
		require.Positive(t, id)
		seen[id] = true
	}
	assert.Error(t, InitSnowflake(-1))
}

func TestKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	assert.Len(t, a, 27)
	assert.NotEqual(t, a, b)
}

func TestInitLogger(t *testing.T) {
	lg, err := Init(LogConfig{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, lg.Core().Enabled(-1))

	file := filepath.Join(t.TempDir(), "service.log")
	lg, err = Init(LogConfig{Level: "warn", File: file})
	require.NoError(t, err)
	lg.Warn("written to rotating file")
	assert.False(t, lg.Core().Enabled(0))
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, "warn", levelFromString("warning").String())
	assert.Equal(t, "info", levelFromString("bogus").String())
}
