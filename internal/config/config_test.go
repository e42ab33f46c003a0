package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvEndpoint, "")
	return home
}

func TestResolveDefault(t *testing.T) {
	isolate(t)
	ep, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, ep.HTTP)
	assert.Equal(t, "wss://todo-test-api.devcraft.co/v1/graphql", ep.WS)
	assert.Equal(t, "default", ep.Source)
}

func TestResolvePrecedence(t *testing.T) {
	isolate(t)
	require.NoError(t, Save("http://file.example/v1/graphql", ""))

	ep, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "file", ep.Source)
	assert.Equal(t, "ws://file.example/v1/graphql", ep.WS)
	assert.False(t, ep.SavedAt.IsZero())

	t.Setenv(EnvEndpoint, "https://env.example/graphql")
	ep, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "env", ep.Source)
	assert.Equal(t, "wss://env.example/graphql", ep.WS)

	ep, err = Resolve("http://localhost:8080/v1/graphql")
	require.NoError(t, err)
	assert.Equal(t, "flag", ep.Source)
	assert.Equal(t, "ws://localhost:8080/v1/graphql", ep.WS)
}

func TestSaveExplicitWebsocketAndReset(t *testing.T) {
	home := isolate(t)
	require.NoError(t, Save("https://api.example/graphql", "wss://push.example/graphql"))

	fi, err := os.Stat(filepath.Join(home, ".todo", configFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	ep, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "wss://push.example/graphql", ep.WS)

	require.NoError(t, Reset())
	require.NoError(t, Reset())
	ep, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "default", ep.Source)
}

func TestRejectsNonHTTP(t *testing.T) {
	isolate(t)
	_, err := Resolve("ftp://nope")
	assert.Error(t, err)
	assert.Error(t, Save("not a url", ""))
}
