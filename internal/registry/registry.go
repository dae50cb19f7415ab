// Package registry holds the static app-id to shared-secret map used to
// authenticate downstream apps. The map is built once at startup and is
// read-only for the process lifetime.
package registry

import (
	"crypto/subtle"
	"strings"

	"auth-broker/internal/domain"
)

// Registry is an immutable appId -> secret capability map.
type Registry struct {
	secrets map[string]string
}

// Parse builds a Registry from a delimited configuration string of the form
// "app1:secret1,app2:secret2". Blank pairs and pairs without a colon are
// skipped; the last pair wins on duplicate app ids.
func Parse(raw string) *Registry {
	secrets := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		appID, secret, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		appID = strings.TrimSpace(appID)
		if appID == "" {
			continue
		}
		secrets[appID] = strings.TrimSpace(secret)
	}
	return &Registry{secrets: secrets}
}

// Len reports how many apps are registered.
func (r *Registry) Len() int {
	return len(r.secrets)
}

// Authenticate checks an appId/secret pair against the registry.
func (r *Registry) Authenticate(appID, appSecret string) error {
	if appID == "" || appSecret == "" {
		return domain.ErrMissingAppCredentials
	}
	expected, ok := r.secrets[appID]
	if !ok {
		return domain.ErrUnknownApp
	}
	if subtle.ConstantTimeCompare([]byte(appSecret), []byte(expected)) != 1 {
		return domain.ErrInvalidAppSecret
	}
	return nil
}
