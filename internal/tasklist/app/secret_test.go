package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSigningSecret_EnvWins(t *testing.T) {
	secret, err := loadSigningSecret(Config{
		Secret:     "from-env",
		SecretFile: filepath.Join(t.TempDir(), "secret"),
	})
	require.NoError(t, err)
	require.Equal(t, []byte("from-env"), secret)
}

func TestLoadSigningSecret_GeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")

	first, err := loadSigningSecret(Config{SecretFile: path})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A restart reads the same secret back, so issued tokens stay valid.
	second, err := loadSigningSecret(Config{SecretFile: path})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadSigningSecret_RejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err := loadSigningSecret(Config{SecretFile: path})
	require.Error(t, err)
	require.Contains(t, err.Error(), path, "the error must name the offending file")
}

func TestLoadSigningSecret_DistinctPerFile(t *testing.T) {
	dir := t.TempDir()

	a, err := loadSigningSecret(Config{SecretFile: filepath.Join(dir, "a")})
	require.NoError(t, err)
	b, err := loadSigningSecret(Config{SecretFile: filepath.Join(dir, "b")})
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}
