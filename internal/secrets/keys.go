package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/nagendra-kumar-y/zerothhire/internal/config"
)

// “Service” groups this app’s secrets in the OS keychain.
const KeyringService = "zerothhire"

const (
	AccountHunter      = "hunter_api_key"
	AccountRocketReach = "rocketreach_api_key"
	AccountSendGrid    = "sendgrid_api_key"
)

// lookup prefers the keychain and falls back to the config/env value.
// An empty result means the provider is disabled, not an error.
func lookup(account, fallback string) string {
	if v, err := keyring.Get(KeyringService, account); err == nil && strings.TrimSpace(v) != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func HunterKey(cfg config.Config) string {
	return lookup(AccountHunter, cfg.Providers.Hunter.APIKey)
}

func RocketReachKey(cfg config.Config) string {
	return lookup(AccountRocketReach, cfg.Providers.RocketReach.APIKey)
}

func SendGridKey(cfg config.Config) string {
	return lookup(AccountSendGrid, cfg.Providers.SendGrid.APIKey)
}

func IMAPPassword(cfg config.Config) string {
	account := "imap:" + cfg.Engage.Username + "@" + cfg.Engage.IMAPHost
	return lookup(account, cfg.Engage.AppPassword)
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
