package keystore

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frostbit/frostbit/frost"
	"github.com/stretchr/testify/require"
)

func dealStore(t *testing.T) *Store {
	t.Helper()
	packages, pubkeys, err := frost.Generate(3, 5, rand.Reader)
	require.NoError(t, err)
	return New(packages, pubkeys)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := dealStore(t)
	path := filepath.Join(t.TempDir(), "keystore.json")

	require.NoError(t, st.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, st.PublicKeys.Threshold, loaded.PublicKeys.Threshold)
	require.True(t, st.PublicKeys.GroupPublicKey.X.Equals(&loaded.PublicKeys.GroupPublicKey.X))
	require.Equal(t, st.PublicKeys.IDs(), loaded.PublicKeys.IDs())

	require.Len(t, loaded.KeyPackages, len(st.KeyPackages))
	for i, kp := range st.KeyPackages {
		got := loaded.KeyPackages[i]
		require.Equal(t, kp.ID, got.ID)
		require.Equal(t, kp.Threshold, got.Threshold)
		require.True(t, kp.SigningShare.Equals(got.SigningShare))
		require.True(t, kp.VerifyingShare.X.Equals(&got.VerifyingShare.X))
		require.True(t, kp.GroupPublicKey.X.Equals(&got.GroupPublicKey.X))
	}
}

func TestStoreIsOrderedAndIndexed(t *testing.T) {
	packages, pubkeys, err := frost.Generate(2, 4, rand.Reader)
	require.NoError(t, err)

	// hand the packages over out of order; New must sort them
	packages[0], packages[3] = packages[3], packages[0]
	st := New(packages, pubkeys)

	for i, kp := range st.KeyPackages {
		require.Equal(t, i+1, kp.ID)
	}

	kp, ok := st.KeyPackage(3)
	require.True(t, ok)
	require.Equal(t, 3, kp.ID)

	_, ok = st.KeyPackage(99)
	require.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, ErrStoreNotFound)
}

func TestLoadCorruptArtifacts(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	// not json at all
	_, err := Load(write("garbage.json", "not json at all"))
	require.ErrorIs(t, err, ErrCorruptStore)

	// structurally valid json, nonsense content
	_, err = Load(write("empty.json", `{}`))
	require.ErrorIs(t, err, ErrCorruptStore)

	// a real store with one flipped signing share byte still parses but the
	// zero share is rejected
	st := dealStore(t)
	good := filepath.Join(dir, "good.json")
	require.NoError(t, st.Save(good))
	data, err := os.ReadFile(good)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"threshold": 3`, `"threshold": 99`, 1)
	_, err = Load(write("tampered.json", tampered))
	require.ErrorIs(t, err, ErrCorruptStore)
}

func TestSaveIsAtomic(t *testing.T) {
	st := dealStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.json")

	require.NoError(t, st.Save(path))
	// overwriting an existing artifact also goes through a temp file
	require.NoError(t, st.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files must be left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestArtifactIsHumanReadable(t *testing.T) {
	st := dealStore(t)
	path := filepath.Join(t.TempDir(), "keystore.json")
	require.NoError(t, st.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	require.Contains(t, text, `"threshold"`)
	require.Contains(t, text, `"group_public_key"`)
	require.Contains(t, text, `"key_packages"`)
}
