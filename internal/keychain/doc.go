// Package keychain provides prefs.Keychain implementations.
//
//   - OS stores secrets in the platform credential store (macOS Keychain,
//     Secret Service on Linux, Windows Credential Manager). Service is the
//     keychain service name, account is the preference key.
//   - File keeps every secret in one passphrase-sealed file for hosts without
//     a credential daemon.
//
// Open picks one of these, or the SQLite credential table, from configuration.
package keychain
