package domain

import (
	"time"

	"github.com/google/uuid"
)

// Provider names a third-party integration whose secrets a tenant stores.
type Provider string

const (
	ProviderCalendly  Provider = "calendly"
	ProviderMeta      Provider = "meta"
	ProviderGoogleAds Provider = "google_ads"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderCalendly, ProviderMeta, ProviderGoogleAds:
		return true
	}
	return false
}

// Credential is the at-rest form of a tenant's integration secrets. Both
// secret fields hold vault ciphertext, never plaintext.
type Credential struct {
	TenantID            uuid.UUID
	Provider            Provider
	EncryptedToken      string
	EncryptedAccountURI string
	UpdatedAt           time.Time
}

// DecryptedCredential is handed to third-party API clients.
type DecryptedCredential struct {
	Provider    Provider `json:"provider"`
	AccessToken string   `json:"-"`
	AccountURI  string   `json:"account_uri,omitempty"`
}
