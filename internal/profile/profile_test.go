package profile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplemotion/m365-mcp/internal/config"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(t.TempDir(), map[string]config.Profile{
		"SM": {Label: "SimpleMotion"},
		"SG": {Label: "SimpleMotion Global"},
	})
}

func TestActive_DefaultsWithoutMarker(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, "SM", r.Active())
}

func TestSetActive_RoundTrip(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.SetActive("SG"))
	assert.Equal(t, "SG", r.Active())

	require.NoError(t, r.SetActive("SM"))
	assert.Equal(t, "SM", r.Active())
}

func TestSetActive_InvalidProfileLeavesMarkerUntouched(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.SetActive("SG"))

	err := r.SetActive("bogus")
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), "SG, SM")

	assert.Equal(t, "SG", r.Active())
}

func TestActive_IgnoresInvalidMarkerContents(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, os.WriteFile(r.MarkerPath(), []byte("stale\n"), 0o600))

	assert.Equal(t, "SM", r.Active())
}

func TestActive_TrimsWhitespace(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, os.WriteFile(r.MarkerPath(), []byte("SG\n"), 0o600))

	assert.Equal(t, "SG", r.Active())
}

func TestCodes_Sorted(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, []string{"SG", "SM"}, r.Codes())
}

func TestActive_FallsBackToFirstCodeWithoutDefault(t *testing.T) {
	r := NewRegistry(t.TempDir(), map[string]config.Profile{
		"ACME": {Label: "Acme"},
	})
	assert.Equal(t, "ACME", r.Active())
}
