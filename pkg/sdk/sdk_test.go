package sdk_test

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/internal/server"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
	"github.com/celerix-dev/celerix-prefs/pkg/sdk"
)

// startDaemon serves a fresh MemStore over plain TCP and returns its address.
func startDaemon(t *testing.T) (string, *engine.MemStore) {
	t.Helper()
	store := engine.NewMemStore(nil, nil)
	router := server.NewRouter(store)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go router.Serve(listener)
	t.Cleanup(func() { router.Stop() })

	return listener.Addr().String(), store
}

func TestClient_Integration(t *testing.T) {
	addr, store := startDaemon(t)

	client, err := sdk.Connect(addr, sdk.WithoutTLS())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping())

	require.NoError(t, client.Set("app", "k1", "v1"))
	val, err := client.Get("app", "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	direct, err := store.Get("app", "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", direct)

	suites, err := client.Suites()
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, suites)

	dict, err := client.Dictionary("app")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k1": "v1"}, dict)

	require.NoError(t, client.Move("app", "other", "k1"))
	_, err = client.Get("app", "k1")
	assert.ErrorIs(t, err, prefs.ErrNotFound)

	_, err = client.Dictionary("missing")
	assert.ErrorIs(t, err, engine.ErrSuiteNotFound)

	require.NoError(t, client.Delete("other", "k1"))
	_, err = client.Get("other", "k1")
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestClient_TypedPreferences(t *testing.T) {
	addr, _ := startDaemon(t)
	client, err := sdk.Connect(addr, sdk.WithoutTLS())
	require.NoError(t, err)
	defer client.Close()

	type profile struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	key := prefs.NewKey[profile]("profile")
	p := client.Preferences("app")

	prefs.Set(p, key, profile{Name: "Alice", Age: 30})
	got, ok := prefs.Get(p, key)
	require.True(t, ok)
	assert.Equal(t, profile{Name: "Alice", Age: 30}, got)

	prefs.SetOptional(p, key, nil)
	_, ok = prefs.Get(p, key)
	assert.False(t, ok)
}

func TestClient_RejectsInvalidNames(t *testing.T) {
	addr, _ := startDaemon(t)
	client, err := sdk.Connect(addr, sdk.WithoutTLS())
	require.NoError(t, err)
	defer client.Close()

	assert.ErrorIs(t, client.Set("my suite", "k", 1), sdk.ErrInvalidName)
	_, err = client.Get("app", "")
	assert.ErrorIs(t, err, sdk.ErrInvalidName)
}

func TestClient_ReconnectsAfterClose(t *testing.T) {
	addr, _ := startDaemon(t)

	client, err := sdk.Connect(addr, sdk.WithoutTLS())
	require.NoError(t, err)

	// Closing drops the connection; the next call must reconnect to the still running daemon.
	require.NoError(t, client.Close())
	require.NoError(t, client.Set("app", "k", "v"))
	require.NoError(t, client.Close())
}

func TestClient_DaemonGone(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	router := server.NewRouter(store)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go router.Serve(listener)

	client, err := sdk.Connect(listener.Addr().String(), sdk.WithoutTLS())
	require.NoError(t, err)
	require.NoError(t, router.Stop())
	require.NoError(t, client.Close())

	start := time.Now()
	_, err = client.Get("app", "k")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestNew_FallsBackToEmbedded(t *testing.T) {
	dir := t.TempDir()

	store, err := sdk.New(sdk.Options{Addr: "127.0.0.1:1", DisableTLS: true, DataDir: dir})
	require.NoError(t, err)

	require.NoError(t, store.Set("app", "k", "v"))
	require.NoError(t, store.Close())

	// The value survives a reopen from disk.
	store, err = sdk.New(sdk.Options{DataDir: dir})
	require.NoError(t, err)
	defer store.Close()

	val, err := store.Get("app", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestNew_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prefs.db")

	store, err := sdk.New(sdk.Options{Backend: sdk.BackendSQLite, DBPath: dbPath})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set("app", "n", 3))
	val, err := store.Get("app", "n")
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), val)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := sdk.New(sdk.Options{Backend: "plist"})
	assert.Error(t, err)
}

func TestClient_RoundTripsValuesExactly(t *testing.T) {
	addr, _ := startDaemon(t)

	client, err := sdk.Connect(addr, sdk.WithoutTLS())
	require.NoError(t, err)
	defer client.Close()

	p := client.Preferences("app")
	greeting := prefs.NewKey[string]("greeting")
	prefs.Set(p, greeting, "hello  world")
	gotGreeting, ok := prefs.Get(p, greeting)
	require.True(t, ok)
	assert.Equal(t, "hello  world", gotGreeting)

	id := prefs.NewKey[int64]("id")
	const want int64 = 1<<53 + 1
	prefs.Set(p, id, want)
	gotID, ok := prefs.Get(p, id)
	require.True(t, ok)
	assert.Equal(t, want, gotID)
}
