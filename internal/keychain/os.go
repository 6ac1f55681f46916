package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// Compile-time interface satisfaction check.
var _ prefs.Keychain = OS{}

// OS is the platform credential store.
type OS struct{}

func (OS) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	return secret, translate(err)
}

func (OS) Set(service, account, secret string) error {
	return translate(keyring.Set(service, account, secret))
}

func (OS) Delete(service, account string) error {
	return translate(keyring.Delete(service, account))
}

func translate(err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return prefs.ErrNotFound
	}
	return err
}
