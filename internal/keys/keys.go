// Package keys declares the preference keys used by this repository's binaries.
package keys

import "github.com/celerix-dev/celerix-prefs/pkg/prefs"

// CLI holds the plain preferences the command line tool remembers between runs.
var CLI = struct {
	// LastSuite is used when a command omits --suite.
	LastSuite prefs.Key[string]
	// Runs counts invocations.
	Runs prefs.Key[int]
}{
	LastSuite: prefs.NewKey[string]("cli.last_suite"),
	Runs:      prefs.NewKey[int]("cli.runs"),
}

// Secrets holds the secure keys used by the binaries.
var Secrets = struct {
	// APIToken authenticates calls to the daemon's HTTP API.
	APIToken prefs.SecureKey
}{
	APIToken: prefs.NewSecureKey("api_token"),
}

// Suite is where the CLI keeps its own preferences.
const Suite = "dev.celerix.prefs.cli"
