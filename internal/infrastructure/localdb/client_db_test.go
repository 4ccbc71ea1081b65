package localdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesRoundTrip(t *testing.T) {
	db, err := NewClientDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	v, err := db.GetPreference("theme")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetPreference("theme", "dark"))
	require.NoError(t, db.SetPreference("theme", "light"))

	v, err = db.GetPreference("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	require.NoError(t, db.DeletePreference("theme"))
	v, _ = db.GetPreference("theme")
	assert.Empty(t, v)
}

func TestTokenSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	db, err := NewClientDB(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveToken("tkn"))
	require.NoError(t, db.Close())

	db, err = NewClientDB(path)
	require.NoError(t, err)
	defer db.Close()

	token, err := db.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "tkn", token)

	require.NoError(t, db.ClearToken())
	token, err = db.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}
