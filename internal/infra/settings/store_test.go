package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "admin-config.json"), zap.NewNop())
	require.NoError(t, err)

	assert.True(t, st.UploadEnabled())
	assert.True(t, st.YouTubeEnabled())
	assert.True(t, st.TikTokEnabled())
	assert.False(t, st.HasPassword())
	assert.Equal(t, "#667eea", st.Public().PrimaryColor)
}

func TestOpenMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin-config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"youtubeEnabled": false, "announcement": "maintenance"}`), 0o600))

	st, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, st.YouTubeEnabled())
	assert.True(t, st.TikTokEnabled())
	assert.Equal(t, "maintenance", st.Public().Announcement)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin-config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

	_, err := Open(path, zap.NewNop())
	assert.Error(t, err)
}

func TestUpdatePersistsPartialPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "admin-config.json")
	st, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	pub, err := st.Update(Patch{TikTokEnabled: ptr(false), Announcement: ptr("hello")})
	require.NoError(t, err)
	assert.False(t, pub.TikTokEnabled)
	assert.True(t, pub.UploadEnabled)
	assert.Equal(t, "hello", pub.Announcement)

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, pub, reopened.Public())
}

func TestPasswordLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin-config.json")
	st, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, st.CheckPassword("anything"))
	assert.ErrorIs(t, st.SetPassword("abc"), ErrPasswordTooShort)

	require.NoError(t, st.SetPassword("s3cret-pass"))
	assert.True(t, st.HasPassword())
	assert.True(t, st.CheckPassword("s3cret-pass"))
	assert.False(t, st.CheckPassword("wrong"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret-pass")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotEmpty(t, raw["password"])

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, reopened.CheckPassword("s3cret-pass"))
}

func TestPublicNeverCarriesPassword(t *testing.T) {
	st, err := Open("", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, st.SetPassword("s3cret-pass"))

	data, err := json.Marshal(st.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}
