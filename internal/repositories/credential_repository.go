// internal/repositories/credential_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/poofware/mfa-service/internal/models"
)

// CredentialRepository stores WebAuthn credentials under
// credential:{credentialId} with a per-user id list under
// user-credentials:{userId}. Credentials never expire; they are removed on
// explicit user action or when the second factor is disabled.
type CredentialRepository interface {
	Create(ctx context.Context, cred *models.WebAuthnCredential) error
	GetByCredentialID(ctx context.Context, credentialID string) (*models.WebAuthnCredential, error)
	Update(ctx context.Context, cred *models.WebAuthnCredential) error
	Delete(ctx context.Context, credentialID string) error
	ListByUserID(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}

type credentialRepository struct {
	kv KVStore
}

// NewCredentialRepository creates a credential repository over the store.
func NewCredentialRepository(kv KVStore) CredentialRepository {
	return &credentialRepository{kv: kv}
}

func (r *credentialRepository) Create(ctx context.Context, cred *models.WebAuthnCredential) error {
	if err := r.put(ctx, cred); err != nil {
		return err
	}

	ids, err := r.userCredentialIDs(ctx, cred.UserID)
	if err != nil {
		return err
	}
	if !slices.Contains(ids, cred.CredentialID) {
		ids = append(ids, cred.CredentialID)
	}
	return r.putUserCredentialIDs(ctx, cred.UserID, ids)
}

func (r *credentialRepository) GetByCredentialID(ctx context.Context, credentialID string) (*models.WebAuthnCredential, error) {
	raw, err := r.kv.Get(ctx, credentialKey(credentialID))
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var cred models.WebAuthnCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}
	return &cred, nil
}

func (r *credentialRepository) Update(ctx context.Context, cred *models.WebAuthnCredential) error {
	return r.put(ctx, cred)
}

func (r *credentialRepository) Delete(ctx context.Context, credentialID string) error {
	cred, err := r.GetByCredentialID(ctx, credentialID)
	if err != nil {
		return err
	}
	if cred == nil {
		return nil
	}
	if err := r.kv.Delete(ctx, credentialKey(credentialID)); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	ids, err := r.userCredentialIDs(ctx, cred.UserID)
	if err != nil {
		return err
	}
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == credentialID })
	if len(ids) == 0 {
		return r.kv.Delete(ctx, userCredentialsKey(cred.UserID))
	}
	return r.putUserCredentialIDs(ctx, cred.UserID, ids)
}

func (r *credentialRepository) ListByUserID(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error) {
	ids, err := r.userCredentialIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	creds := make([]*models.WebAuthnCredential, 0, len(ids))
	for _, id := range ids {
		cred, err := r.GetByCredentialID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cred != nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

func (r *credentialRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	ids, err := r.userCredentialIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.kv.Delete(ctx, credentialKey(id)); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
	}
	return r.kv.Delete(ctx, userCredentialsKey(userID))
}

func (r *credentialRepository) put(ctx context.Context, cred *models.WebAuthnCredential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return r.kv.Set(ctx, credentialKey(cred.CredentialID), raw, 0)
}

func (r *credentialRepository) userCredentialIDs(ctx context.Context, userID string) ([]string, error) {
	raw, err := r.kv.Get(ctx, userCredentialsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get user credential ids: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal user credential ids: %w", err)
	}
	return ids, nil
}

func (r *credentialRepository) putUserCredentialIDs(ctx context.Context, userID string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal user credential ids: %w", err)
	}
	return r.kv.Set(ctx, userCredentialsKey(userID), raw, 0)
}
