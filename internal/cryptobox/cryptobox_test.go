package cryptobox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKey_GeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".key")

	key1, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, key1, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	key2, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key, err := LoadOrCreateKey(filepath.Join(t.TempDir(), ".key"))
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("token payload"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "token payload")

	opened, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("token payload"), opened)
}

func TestOpen_CorruptPayload(t *testing.T) {
	key, err := LoadOrCreateKey(filepath.Join(t.TempDir(), ".key"))
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("payload"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = Open(key, sealed)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpen_TruncatedPayload(t *testing.T) {
	key, err := LoadOrCreateKey(filepath.Join(t.TempDir(), ".key"))
	require.NoError(t, err)

	_, err = Open(key, []byte("short"))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpen_WrongKey(t *testing.T) {
	dir := t.TempDir()
	key1, err := LoadOrCreateKey(filepath.Join(dir, ".key1"))
	require.NoError(t, err)
	key2, err := LoadOrCreateKey(filepath.Join(dir, ".key2"))
	require.NoError(t, err)

	sealed, err := Seal(key1, []byte("payload"))
	require.NoError(t, err)

	_, err = Open(key2, sealed)
	assert.ErrorIs(t, err, ErrCorrupt)
}
