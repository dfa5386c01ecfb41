package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *Record {
	return &Record{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		TokenType:    "Bearer",
		ExpiresAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Scope:        "https://graph.microsoft.com/.default",
		UserEmail:    "bot@simplemotion.com",
		UserName:     "Automation Bot",
	}
}

func TestCache_SaveLoadRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())
	want := testRecord()

	require.NoError(t, cache.Save("SM", want))

	got, ok := cache.Load("SM")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_LoadMissing(t *testing.T) {
	cache := NewCache(t.TempDir())

	_, ok := cache.Load("SM")
	assert.False(t, ok)
}

func TestCache_LoadCorruptArtifactIsMiss(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)
	require.NoError(t, cache.Save("SM", testRecord()))

	path := filepath.Join(dir, "tokens-SM.enc")
	require.NoError(t, os.WriteFile(path, []byte("not ciphertext"), 0o600))

	_, ok := cache.Load("SM")
	assert.False(t, ok)
}

func TestCache_TokenFileIsEncryptedAndOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)
	require.NoError(t, cache.Save("SM", testRecord()))

	path := filepath.Join(dir, "tokens-SM.enc")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access-abc")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCache_ClearIsIdempotent(t *testing.T) {
	cache := NewCache(t.TempDir())
	require.NoError(t, cache.Save("SM", testRecord()))

	require.NoError(t, cache.Clear("SM"))
	_, ok := cache.Load("SM")
	assert.False(t, ok)

	// Clearing an absent cache is still success.
	assert.NoError(t, cache.Clear("SM"))
}

func TestCache_ProfilesAreIndependent(t *testing.T) {
	cache := NewCache(t.TempDir())
	sm := testRecord()
	sg := testRecord()
	sg.AccessToken = "access-sg"

	require.NoError(t, cache.Save("SM", sm))
	require.NoError(t, cache.Save("SG", sg))
	require.NoError(t, cache.Clear("SM"))

	_, ok := cache.Load("SM")
	assert.False(t, ok)

	got, ok := cache.Load("SG")
	require.True(t, ok)
	assert.Equal(t, "access-sg", got.AccessToken)
}

func TestRecord_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future expiry", now.Add(time.Hour), false},
		{"past expiry", now.Add(-time.Second), true},
		{"exact instant", now, true},
		{"zero expiry", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, r.Expired(now))
		})
	}
}
