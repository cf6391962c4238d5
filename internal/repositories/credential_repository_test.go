package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/poofware/mfa-service/internal/models"
)

func mkCredential(userID, credentialID string) *models.WebAuthnCredential {
	return &models.WebAuthnCredential{
		ID:           uuid.New(),
		CredentialID: credentialID,
		UserID:       userID,
		PublicKey:    []byte{0xa5, 0x01, 0x02},
		Algorithm:    -7,
		CreatedAt:    time.Now(),
	}
}

func TestCredentialRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(NewMemoryKVStore())

	got, err := repo.GetByCredentialID(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	credA := mkCredential("user-1", "cred-a")
	credB := mkCredential("user-1", "cred-b")
	require.NoError(t, repo.Create(ctx, credA))
	require.NoError(t, repo.Create(ctx, credB))

	got, err = repo.GetByCredentialID(ctx, "cred-a")
	require.NoError(t, err)
	require.Equal(t, credA.ID, got.ID)

	list, err := repo.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	credA.SignCount = 9
	require.NoError(t, repo.Update(ctx, credA))
	got, err = repo.GetByCredentialID(ctx, "cred-a")
	require.NoError(t, err)
	require.Equal(t, uint32(9), got.SignCount)

	require.NoError(t, repo.Delete(ctx, "cred-a"))
	list, err = repo.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "cred-b", list[0].CredentialID)

	require.NoError(t, repo.DeleteAllForUser(ctx, "user-1"))
	list, err = repo.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestChallengeRepositoryConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengeRepository(NewMemoryKVStore())

	challenge := &models.Challenge{
		Token:     "tok",
		Ceremony:  models.CeremonyRegistration,
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, challenge, time.Minute))

	got, err := repo.Consume(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "user-1", got.UserID)

	got, err = repo.Consume(ctx, "tok")
	require.NoError(t, err)
	require.Nil(t, got)
}
