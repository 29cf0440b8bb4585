package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func createAccount(t *testing.T, s *Store, username, email string) *model.Account {
	t.Helper()
	account, err := s.Accounts().CreateAccount(context.Background(), &model.Account{
		Username: username,
		Email:    email,
	})
	require.NoError(t, err)
	return account
}

func TestAccountUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	first := createAccount(t, s, "ayse", "ayse@djdict.test")

	_, err := s.Accounts().CreateAccount(ctx, &model.Account{Username: "other", Email: "ayse@djdict.test"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	_, err = s.Accounts().CreateAccount(ctx, &model.Account{Username: "ayse", Email: "other@djdict.test"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	second := createAccount(t, s, "mehmet", "mehmet@djdict.test")
	taken := "ayse@djdict.test"
	_, err = s.Accounts().UpdateAccount(ctx, second.ID.Hex(), repository.UpdateAccountParams{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	got, err := s.Accounts().GetAccountByEmail(ctx, "ayse@djdict.test")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.Accounts().GetAccount(ctx, "not-hex")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeVerificationRespectsExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	account := createAccount(t, s, "ayse", "ayse@djdict.test")

	_, err := s.Verifications().CreateVerification(ctx, &model.Verification{
		AccountID: account.ID,
		TokenHash: "hash-1",
		ExpiresAt: epoch.Add(24 * time.Hour),
		CreatedAt: epoch,
	})
	require.NoError(t, err)

	_, found, err := s.Verifications().ConsumeVerification(ctx, "hash-1", epoch.Add(25*time.Hour))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, s.CountVerifications(account.ID), "expired records stay until cleared")

	_, found, err = s.Verifications().ConsumeVerification(ctx, "wrong-hash", epoch)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.Verifications().ConsumeVerification(ctx, "hash-1", epoch.Add(24*time.Hour+time.Nanosecond))
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err := s.Verifications().ConsumeVerification(ctx, "hash-1", epoch.Add(24*time.Hour))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, account.ID, v.AccountID)
	assert.Equal(t, 0, s.CountVerifications(account.ID))
}

func TestConcurrentConsumeHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	account := createAccount(t, s, "ayse", "ayse@djdict.test")

	_, err := s.Verifications().CreateVerification(ctx, &model.Verification{
		AccountID: account.ID,
		TokenHash: "hash-1",
		ExpiresAt: epoch.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, found, err := s.Verifications().ConsumeVerification(ctx, "hash-1", epoch)
			assert.NoError(t, err)
			if found {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestDeleteAccountVerifications(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := createAccount(t, s, "ayse", "ayse@djdict.test")
	b := createAccount(t, s, "mehmet", "mehmet@djdict.test")

	for i, hash := range []string{"a1", "a2", "b1"} {
		owner := a.ID
		if i == 2 {
			owner = b.ID
		}
		_, err := s.Verifications().CreateVerification(ctx, &model.Verification{
			AccountID: owner,
			TokenHash: hash,
			ExpiresAt: epoch.Add(24 * time.Hour),
		})
		require.NoError(t, err)
	}

	deleted, err := s.Verifications().DeleteAccountVerifications(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 0, s.CountVerifications(a.ID))
	assert.Equal(t, 1, s.CountVerifications(b.ID))
}

func TestSessionRevocation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	account := createAccount(t, s, "ayse", "ayse@djdict.test")

	for _, id := range []string{"phone", "laptop", "tablet"} {
		_, err := s.Sessions().CreateSession(ctx, &model.Session{
			SessionID: id,
			AccountID: account.ID,
			ExpiresAt: epoch.Add(time.Hour),
		})
		require.NoError(t, err)
	}

	revoked, err := s.Sessions().RevokeSession(ctx, "phone")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 2, s.CountSessions(account.ID))

	revoked, err = s.Sessions().RevokeSession(ctx, "phone")
	require.NoError(t, err)
	assert.False(t, revoked)

	n, err := s.Sessions().RevokeOtherSessions(ctx, account.ID.Hex(), "laptop")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = s.Sessions().GetSession(ctx, "laptop")
	require.NoError(t, err)

	n, err = s.Sessions().RevokeAccountSessions(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, s.CountSessions(account.ID))

	_, err = s.Sessions().GetSession(ctx, "laptop")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEnqueueTerminationReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	account := createAccount(t, s, "ayse", "ayse@djdict.test")

	first, err := s.Terminations().EnqueueTermination(ctx, &model.TerminationRequest{
		AccountID: account.ID,
		State:     model.TerminationFreeze,
		CreatedAt: epoch,
	})
	require.NoError(t, err)

	second, err := s.Terminations().EnqueueTermination(ctx, &model.TerminationRequest{
		AccountID: account.ID,
		State:     model.TerminationDelete,
		CreatedAt: epoch.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, s.CountTerminations(account.ID))

	got, found, err := s.Terminations().GetTermination(ctx, account.ID.Hex())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.TerminationDelete, got.State)
	assert.True(t, got.CreatedAt.Equal(epoch.Add(time.Hour)))

	cancelled, err := s.Terminations().CancelTermination(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.True(t, cancelled)

	_, found, err = s.Terminations().GetTermination(ctx, account.ID.Hex())
	require.NoError(t, err)
	assert.False(t, found)
}
