package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
)

var (
	ErrVaultUnavailable   = errors.New("credential vault is not configured")
	ErrUnknownProvider    = errors.New("unknown integration provider")
	ErrCredentialNotFound = errors.New("credential not configured")
	ErrTokenRequired      = errors.New("access_token is required")
)

// Cipher is the vault as seen by the credential service.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

type CredentialInput struct {
	AccessToken string
	AccountURI  string
}

// CredentialStatus describes a stored credential without exposing the token.
type CredentialStatus struct {
	Provider   domain.Provider `json:"provider"`
	Configured bool            `json:"configured"`
	AccountURI string          `json:"account_uri,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

type CredentialService struct {
	store  domain.CredentialStore
	cipher Cipher
}

// NewCredentialService builds the service. cipher may be nil when no
// encryption key is configured; every operation then fails with
// ErrVaultUnavailable.
func NewCredentialService(s domain.CredentialStore, cipher Cipher) *CredentialService {
	return &CredentialService{store: s, cipher: cipher}
}

func (s *CredentialService) check(provider domain.Provider) error {
	if s.cipher == nil {
		return ErrVaultUnavailable
	}
	if !provider.Valid() {
		return ErrUnknownProvider
	}
	return nil
}

func (s *CredentialService) Put(ctx context.Context, tenantID uuid.UUID, provider domain.Provider, in CredentialInput) (*CredentialStatus, error) {
	if err := s.check(provider); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(in.AccessToken)
	if token == "" {
		return nil, ErrTokenRequired
	}

	encToken, err := s.cipher.Encrypt(token)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	encURI, err := s.cipher.Encrypt(strings.TrimSpace(in.AccountURI))
	if err != nil {
		return nil, fmt.Errorf("encrypt account uri: %w", err)
	}

	c := &domain.Credential{
		TenantID:            tenantID,
		Provider:            provider,
		EncryptedToken:      encToken,
		EncryptedAccountURI: encURI,
	}
	if err := s.store.Upsert(ctx, c); err != nil {
		return nil, err
	}

	return &CredentialStatus{
		Provider:   provider,
		Configured: true,
		AccountURI: strings.TrimSpace(in.AccountURI),
		UpdatedAt:  &c.UpdatedAt,
	}, nil
}

// Get returns the decrypted credential for API clients. A credential that
// fails to decrypt is an error, never an unconfigured credential.
func (s *CredentialService) Get(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (*domain.DecryptedCredential, error) {
	_, dc, err := s.load(ctx, tenantID, provider)
	return dc, err
}

func (s *CredentialService) Status(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (*CredentialStatus, error) {
	c, dc, err := s.load(ctx, tenantID, provider)
	if errors.Is(err, ErrCredentialNotFound) {
		return &CredentialStatus{Provider: provider}, nil
	}
	if err != nil {
		return nil, err
	}
	updatedAt := c.UpdatedAt
	return &CredentialStatus{
		Provider:   provider,
		Configured: true,
		AccountURI: dc.AccountURI,
		UpdatedAt:  &updatedAt,
	}, nil
}

// load returns the stored row with its decrypted fields.
func (s *CredentialService) load(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (*domain.Credential, *domain.DecryptedCredential, error) {
	if err := s.check(provider); err != nil {
		return nil, nil, err
	}

	c, err := s.store.Get(ctx, tenantID, provider)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrCredentialNotFound
		}
		return nil, nil, err
	}

	token, err := s.cipher.Decrypt(c.EncryptedToken)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt %s access token: %w", provider, err)
	}
	uri, err := s.cipher.Decrypt(c.EncryptedAccountURI)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt %s account uri: %w", provider, err)
	}
	if token == "" {
		return nil, nil, ErrCredentialNotFound
	}

	return c, &domain.DecryptedCredential{Provider: provider, AccessToken: token, AccountURI: uri}, nil
}

func (s *CredentialService) Delete(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) error {
	if !provider.Valid() {
		return ErrUnknownProvider
	}
	if err := s.store.Delete(ctx, tenantID, provider); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCredentialNotFound
		}
		return err
	}
	return nil
}
