package commands

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/internal/keys"
	"github.com/celerix-dev/celerix-prefs/internal/server"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("CELERIX_PREFS_DATA_DIR", dir)
	t.Setenv("CELERIX_PREFS_BACKEND", "json")
	t.Setenv("CELERIX_PREFS_KEYCHAIN", "os")
	t.Setenv("CELERIX_PREFS_STORE_ADDR", "")
	t.Setenv("CELERIX_PREFS_DISABLE_TLS", "true")
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root, c := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	require.NoError(t, c.close())
	return strings.TrimSpace(out.String()), err
}

func TestSetGet(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "set", "-s", "app", "volume", "7")
	require.NoError(t, err)
	_, err = run(t, "", "set", "-s", "app", "theme", "dark")
	require.NoError(t, err)
	_, err = run(t, "", "set", "-s", "app", "--string", "zip", "02134")
	require.NoError(t, err)

	out, err := run(t, "", "get", "-s", "app", "volume")
	require.NoError(t, err)
	assert.Equal(t, "7", out)

	out, err = run(t, "", "get", "-s", "app", "theme")
	require.NoError(t, err)
	assert.Equal(t, `"dark"`, out)

	out, err = run(t, "", "get", "-s", "app", "zip")
	require.NoError(t, err)
	assert.Equal(t, `"02134"`, out)
	_, err = run(t, "", "set", "-s", "app", "id", "9007199254740993")
	require.NoError(t, err)
	out, err = run(t, "", "get", "-s", "app", "id")
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", out)
}

func TestSetNullRemoves(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "set", "-s", "app", "k", `{"a":1}`)
	require.NoError(t, err)
	_, err = run(t, "", "set", "-s", "app", "k", "null")
	require.NoError(t, err)

	_, err = run(t, "", "get", "-s", "app", "k")
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestRmAbsentIsNoop(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "rm", "-s", "app", "never-set")
	assert.NoError(t, err)
}

func TestRemembersLastSuite(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "set", "-s", "games", "level", "3")
	require.NoError(t, err)

	out, err := run(t, "", "get", "level")
	require.NoError(t, err)
	assert.Equal(t, "3", out)

	out, err = run(t, "", "get", "-s", keys.Suite, keys.CLI.LastSuite.Name())
	require.NoError(t, err)
	assert.Equal(t, `"games"`, out)

	// Three runs completed before the one that printed the value.
	out, err = run(t, "", "get", "-s", keys.Suite, keys.CLI.Runs.Name())
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestSuitesAndMove(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "set", "-s", "a", "k", "1")
	require.NoError(t, err)
	_, err = run(t, "", "mv", "-s", "a", "k", "b")
	require.NoError(t, err)

	out, err := run(t, "", "suites")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines, "b")
	assert.NotContains(t, lines, "a")

	out, err = run(t, "", "get", "-s", "b", "k")
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	_, err = run(t, "", "mv", "-s", "a", "k", "b")
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestDumpImport(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "snap.json")

	_, err := run(t, "", "set", "-s", "app", "n", "42")
	require.NoError(t, err)
	_, err = run(t, "", "set", "-s", "app", "tags", `["x","y"]`)
	require.NoError(t, err)

	_, err = run(t, "", "dump", "-s", "app", "-o", file)
	require.NoError(t, err)

	_, err = run(t, "", "rm", "-s", "app", "n")
	require.NoError(t, err)
	_, err = run(t, "", "rm", "-s", "app", "tags")
	require.NoError(t, err)

	out, err := run(t, "", "import", file)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 keys into app", out)

	out, err = run(t, "", "get", "-s", "app", "tags")
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, out)

	out, err = run(t, "", "dump", "-s", "app")
	require.NoError(t, err)
	assert.Contains(t, out, `"suite": "app"`)
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "set", "-s", "app", "n", "42")
	require.NoError(t, err)

	out, err := run(t, "", "migrate", "--from", "json", "--to", "sqlite")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "migrated "))

	t.Setenv("CELERIX_PREFS_BACKEND", "sqlite")
	out, err = run(t, "", "get", "-s", "app", "n")
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	_, err = run(t, "", "migrate", "--from", "sqlite", "--to", "sqlite")
	assert.Error(t, err)
	_, err = run(t, "", "migrate", "--from", "json", "--to", "redis")
	assert.Error(t, err)
}

func TestSecrets(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "secret", "set", "token", "s3cr3t")
	require.NoError(t, err)

	out, err := run(t, "", "secret", "get", "token")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", out)

	_, err = run(t, "from-stdin\n", "secret", "set", "token")
	require.NoError(t, err)
	out, err = run(t, "", "secret", "get", "token")
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", out)

	_, err = run(t, "", "secret", "rm", "token")
	require.NoError(t, err)
	_, err = run(t, "", "secret", "rm", "token")
	require.NoError(t, err)

	_, err = run(t, "", "secret", "get", "token")
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestPing_Embedded(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "ping")
	assert.ErrorIs(t, err, errNoDaemon)
}

func TestPing_Daemon(t *testing.T) {
	setupEnv(t)

	store := engine.NewMemStore(nil, nil)
	router := server.NewRouter(store)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go router.Serve(listener)
	t.Cleanup(func() { router.Stop() })

	addr := listener.Addr().String()
	out, err := run(t, "", "ping", "--addr", addr)
	require.NoError(t, err)
	assert.Equal(t, "PONG from "+addr, out)

	_, err = run(t, "", "set", "--addr", addr, "-s", "remote", "k", "true")
	require.NoError(t, err)
	val, err := store.Get("remote", "k")
	require.NoError(t, err)
	assert.Equal(t, true, val)
}
