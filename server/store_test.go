package server

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	st := NewStore(fs, "/srv")
	require.NoError(t, st.Prepare())

	for _, dir := range []string{"/srv/images", "/srv/recordings"} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, ok, dir)
	}

	p := st.Path(KindImage, "a.jpg")
	assert.Equal(t, "/srv/images/a.jpg", p)
	assert.False(t, st.Exists(p))

	require.NoError(t, afero.WriteFile(fs, p, nil, 0644))
	assert.False(t, st.Exists(p), "empty file")

	require.NoError(t, afero.WriteFile(fs, p, []byte{0xff, 0xd8}, 0644))
	assert.True(t, st.Exists(p))
	assert.False(t, st.Exists("/srv/images"))

	f, fi, err := st.Open(KindImage, "a.jpg")
	require.NoError(t, err)
	f.Close()
	assert.EqualValues(t, 2, fi.Size())
}

func TestStoreOpenRejects(t *testing.T) {
	fs := afero.NewMemMapFs()
	st := NewStore(fs, "/srv")
	require.NoError(t, st.Prepare())
	require.NoError(t, afero.WriteFile(fs, "/srv/secret", []byte("x"), 0644))

	for _, name := range []string{"", ".", "..", "../secret", `..\secret`, "a\x00b", "missing.dav"} {
		_, _, err := st.Open(KindRecording, name)
		assert.True(t, errors.Is(err, os.ErrNotExist), "%q: %v", name, err)
	}
}

func TestRegistry(t *testing.T) {
	e := newTestEnv(t)
	reg := e.srv.Registry()

	err := reg.With(testSession, nil)
	assert.True(t, errors.Is(err, ErrUnknownSession))
	assert.Equal(t, "10.0.0.2_8000", SessionID("10.0.0.2", 8000))

	e.login(t)
	e.login(t)
	assert.Equal(t, []string{testSession}, reg.IDs())

	require.NoError(t, reg.Remove(testSession))
	assert.True(t, errors.Is(reg.Remove(testSession), ErrUnknownSession))
}
