package locus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObj struct {
	Name string `json:"name"`
}

func (testObj) StorageDirName() string  { return ".locus" }
func (testObj) StorageFileName() string { return "test.json" }

type deepObj struct {
	Name string `json:"name"`
}

func (deepObj) StorageDirName() string  { return filepath.Join(".config", "locus", "deep") }
func (deepObj) StorageFileName() string { return "deep.json" }

type countingFs struct {
	afero.Fs
	mkdirs int
}

func (c *countingFs) MkdirAll(path string, perm os.FileMode) error {
	c.mkdirs++
	return c.Fs.MkdirAll(path, perm)
}

func TestStoragePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := StorageFile[testObj]()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".locus", "test.json"), path)
	assert.DirExists(t, filepath.Dir(path))
	assert.NoFileExists(t, path)

	require.NoError(t, os.RemoveAll(filepath.Dir(path)))
}

func TestResolverStorageDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewResolver(StaticDir("/home/test"), fs, 0)

	dir, err := r.StorageDir(testObj{})
	require.NoError(t, err)
	assert.Equal(t, "/home/test/.locus", dir)

	exists, err := afero.DirExists(fs, dir)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestResolverCreatesMissingAncestors(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewResolver(StaticDir("/home/test"), fs, 0)

	path, err := r.StorageFile(deepObj{})
	require.NoError(t, err)
	assert.Equal(t, "/home/test/.config/locus/deep/deep.json", path)

	for _, dir := range []string{"/home/test/.config", "/home/test/.config/locus", "/home/test/.config/locus/deep"} {
		exists, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResolverIsIdempotent(t *testing.T) {
	fs := &countingFs{Fs: afero.NewMemMapFs()}
	r := NewResolver(StaticDir("/home/test"), fs, 0)

	first, err := r.StorageFile(testObj{})
	require.NoError(t, err)
	second, err := r.StorageFile(testObj{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fs.mkdirs)
}

func TestResolverKeepsExistingPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	// a plain file where the directory should be is returned as is
	require.NoError(t, afero.WriteFile(fs, "/home/test/.locus", []byte("x"), 0644))
	r := NewResolver(StaticDir("/home/test"), &countingFs{Fs: fs}, 0)

	dir, err := r.StorageDir(testObj{})
	require.NoError(t, err)
	assert.Equal(t, "/home/test/.locus", dir)
}

func TestResolverBaseDirFailure(t *testing.T) {
	r := NewResolver(func() (string, error) {
		return "", errors.New("mock error")
	}, afero.NewMemMapFs(), 0)

	_, err := r.StorageFile(testObj{})
	assert.ErrorIs(t, err, ErrPathResolution)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, KindPathResolution, lerr.Kind)
	assert.Equal(t, "resolve", lerr.Op)
}

func TestResolverEmptyBaseDir(t *testing.T) {
	r := NewResolver(StaticDir(""), afero.NewMemMapFs(), 0)

	_, err := r.StorageDir(testObj{})
	assert.ErrorIs(t, err, ErrPathResolution)
}

func TestResolverCreateDirFailure(t *testing.T) {
	r := NewResolver(StaticDir("/home/test"), afero.NewReadOnlyFs(afero.NewMemMapFs()), 0)

	_, err := r.StorageDir(testObj{})
	assert.ErrorIs(t, err, ErrPathResolution)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "/home/test/.locus", lerr.Path)
}

func TestResolverEvaluatesBaseDirPerCall(t *testing.T) {
	bases := []string{"/home/a", "/home/b"}
	calls := 0
	r := NewResolver(func() (string, error) {
		base := bases[calls%len(bases)]
		calls++
		return base, nil
	}, afero.NewMemMapFs(), 0)

	first, err := r.StorageDir(testObj{})
	require.NoError(t, err)
	second, err := r.StorageDir(testObj{})
	require.NoError(t, err)

	assert.Equal(t, "/home/a/.locus", first)
	assert.Equal(t, "/home/b/.locus", second)
}
