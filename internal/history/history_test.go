package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(&Entry{
		Profile:  "SM",
		Tool:     "m365_list_messages",
		OK:       true,
		Duration: 120 * time.Millisecond,
	}))
	require.NoError(t, store.Record(&Entry{
		Profile:   "SG",
		Tool:      "m365_send_message",
		OK:        false,
		ErrorKind: "credentials_missing",
		Duration:  5 * time.Millisecond,
	}))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, entry := range entries {
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.InvokedAt.IsZero())
	}

	var failed *Entry
	for _, entry := range entries {
		if !entry.OK {
			failed = entry
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "m365_send_message", failed.Tool)
	assert.Equal(t, "credentials_missing", failed.ErrorKind)
}

func TestRecent_OrderAndLimit(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(&Entry{
			InvokedAt: base.Add(time.Duration(i) * time.Minute),
			Profile:   "SM",
			Tool:      "m365_auth_status",
			OK:        true,
		}))
	}

	entries, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].InvokedAt.After(entries[1].InvokedAt))
	assert.True(t, entries[1].InvokedAt.After(entries[2].InvokedAt))
}

func TestRecent_Empty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen_Reopens(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Record(&Entry{Profile: "SM", Tool: "m365_connect", OK: true}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
