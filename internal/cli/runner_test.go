package cli

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todolive/internal/config"
	"github.com/idilsaglam/todolive/internal/devserver"
	"github.com/idilsaglam/todolive/internal/model"
	"github.com/idilsaglam/todolive/internal/store/sqlstore"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvEndpoint, "")
	return home
}

func startServer(t *testing.T) (*sqlstore.Store, string) {
	t.Helper()
	st, err := sqlstore.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	hs := httptest.NewServer(devserver.New(st).Handler())
	t.Cleanup(hs.Close)
	return st, hs.URL + devserver.GraphQLPath
}

func TestUsageErrors(t *testing.T) {
	isolateHome(t)
	cases := []struct {
		name string
		args []string
	}{
		{"unknown", []string{"bogus"}},
		{"add without title", []string{"add"}},
		{"add blank title", []string{"add", "  "}},
		{"done without id", []string{"done"}},
		{"done bad id", []string{"done", "x"}},
		{"config without action", []string{"config"}},
		{"config unknown action", []string{"config", "frob"}},
		{"set-endpoint without url", []string{"config", "set-endpoint"}},
		{"serve bad flag", []string{"serve", "-nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, 2, Run(tc.args, Options{}))
		})
	}
}

func TestHelp(t *testing.T) {
	assert.Equal(t, 0, Run([]string{"help"}, Options{}))
}

func TestBadEndpointIsUsageError(t *testing.T) {
	isolateHome(t)
	assert.Equal(t, 2, Run([]string{"add", "x"}, Options{Endpoint: "ftp://example.com"}))
}

func TestConfigSetShowReset(t *testing.T) {
	home := isolateHome(t)
	p := filepath.Join(home, ".todo", "config.json")

	require.Equal(t, 0, Run([]string{"config", "set-endpoint", "http://127.0.0.1:9/v1/graphql"}, Options{}))
	_, err := os.Stat(p)
	require.NoError(t, err)

	ep, err := config.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "file", ep.Source)
	assert.Equal(t, "http://127.0.0.1:9/v1/graphql", ep.HTTP)
	assert.Equal(t, 0, Run([]string{"config", "show"}, Options{}))

	require.Equal(t, 0, Run([]string{"config", "reset"}, Options{}))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))
	// Resetting twice is fine.
	assert.Equal(t, 0, Run([]string{"config", "reset"}, Options{}))
}

func TestAddAndToggleAgainstServer(t *testing.T) {
	isolateHome(t)
	st, endpoint := startServer(t)
	opt := Options{Endpoint: endpoint}
	ctx := context.Background()

	require.Equal(t, 0, Run([]string{"add", "Buy", "milk"}, opt))
	items, err := st.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{ID: 1, Title: "Buy milk"}}, items)

	require.Equal(t, 0, Run([]string{"done", "1"}, opt))
	items, err = st.List(ctx)
	require.NoError(t, err)
	assert.True(t, items[0].Completed)

	// Toggling again reopens it.
	require.Equal(t, 0, Run([]string{"done", "1"}, opt))
	items, err = st.List(ctx)
	require.NoError(t, err)
	assert.False(t, items[0].Completed)

	assert.Equal(t, 2, Run([]string{"done", "99"}, opt))
}

func TestServiceDownIsRuntimeError(t *testing.T) {
	isolateHome(t)
	hs := httptest.NewServer(nil)
	down := hs.URL + devserver.GraphQLPath
	hs.Close()
	assert.Equal(t, 1, Run([]string{"add", "x"}, Options{Endpoint: down}))
}

func TestSnapshotLines(t *testing.T) {
	items := []model.Item{
		{ID: 1, Title: "Alpha", Completed: true},
		{ID: 2, Title: "Beta"},
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	flat := strings.Join(snapshotLines(items, false, at), "\n")
	assert.Contains(t, flat, "03:04:05")
	assert.Less(t, strings.Index(flat, "Alpha"), strings.Index(flat, "Beta"))

	grouped := snapshotLines(items, true, at)
	joined := strings.Join(grouped, "\n")
	assert.Less(t, strings.Index(joined, "Pending"), strings.Index(joined, "Beta"))
	assert.Less(t, strings.Index(joined, "Done"), strings.Index(joined, "Alpha"))

	empty := strings.Join(snapshotLines(nil, false, at), "\n")
	assert.Contains(t, empty, "No todos yet")
}
