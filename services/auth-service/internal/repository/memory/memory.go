// Package memory implements the repository interfaces on process memory. It backs the
// service when STORAGE_DRIVER=memory and is used by tests in place of MongoDB.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/repository"
)

// Store holds every collection behind one mutex, so each repository call is atomic.
type Store struct {
	mu            sync.Mutex
	accounts      map[bson.ObjectID]model.Account
	verifications map[bson.ObjectID]model.Verification
	sessions      map[string]model.Session
	terminations  map[bson.ObjectID]model.TerminationRequest
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:      make(map[bson.ObjectID]model.Account),
		verifications: make(map[bson.ObjectID]model.Verification),
		sessions:      make(map[string]model.Session),
		terminations:  make(map[bson.ObjectID]model.TerminationRequest),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() repository.AccountRepository { return accountRepository{s} }

// Verifications returns the verification repository view of the store.
func (s *Store) Verifications() repository.VerificationRepository { return verificationRepository{s} }

// Sessions returns the session repository view of the store.
func (s *Store) Sessions() repository.SessionRepository { return sessionRepository{s} }

// Terminations returns the termination repository view of the store.
func (s *Store) Terminations() repository.TerminationRepository { return terminationRepository{s} }

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: malformed id %q", repository.ErrNotFound, id)
	}
	return oid, nil
}

type accountRepository struct{ s *Store }

func (r accountRepository) CreateAccount(_ context.Context, account *model.Account) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.accounts {
		if existing.Email == account.Email {
			return nil, fmt.Errorf("%w: email", repository.ErrDuplicateKey)
		}
		if existing.Username == account.Username {
			return nil, fmt.Errorf("%w: username", repository.ErrDuplicateKey)
		}
	}

	now := time.Now().UTC()
	account.ID = bson.NewObjectID()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.s.accounts[account.ID] = *account

	out := *account
	return &out, nil
}

func (r accountRepository) GetAccount(_ context.Context, id string) (*model.Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (r accountRepository) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, account := range r.s.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r accountRepository) UpdateAccount(
	_ context.Context,
	id string,
	params repository.UpdateAccountParams,
) (*model.Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if params.IsEmpty() {
		return nil, fmt.Errorf("no account fields to update")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if params.Email != nil {
		for otherID, other := range r.s.accounts {
			if otherID != oid && other.Email == *params.Email {
				return nil, fmt.Errorf("%w: email", repository.ErrDuplicateKey)
			}
		}
		account.Email = *params.Email
	}
	if params.PasswordHash != nil {
		account.PasswordHash = *params.PasswordHash
	}
	if params.Active != nil {
		account.Active = *params.Active
	}
	account.UpdatedAt = time.Now().UTC()
	r.s.accounts[oid] = account

	return &account, nil
}

func (r accountRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[oid]
	if !ok {
		return nil
	}
	account.LastLoginAt = &at
	r.s.accounts[oid] = account
	return nil
}

type verificationRepository struct{ s *Store }

func (r verificationRepository) CreateVerification(
	_ context.Context,
	verification *model.Verification,
) (*model.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.verifications {
		if existing.TokenHash == verification.TokenHash {
			return nil, fmt.Errorf("%w: token_hash", repository.ErrDuplicateKey)
		}
	}

	verification.ID = bson.NewObjectID()
	r.s.verifications[verification.ID] = *verification

	out := *verification
	return &out, nil
}

func (r verificationRepository) ConsumeVerification(
	_ context.Context,
	tokenHash string,
	now time.Time,
) (*model.Verification, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, verification := range r.s.verifications {
		if verification.TokenHash != tokenHash || now.After(verification.ExpiresAt) {
			continue
		}
		delete(r.s.verifications, id)
		return &verification, true, nil
	}
	return nil, false, nil
}

func (r verificationRepository) DeleteAccountVerifications(_ context.Context, accountID string) (int64, error) {
	oid, err := parseID(accountID)
	if err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, verification := range r.s.verifications {
		if verification.AccountID == oid {
			delete(r.s.verifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountVerifications returns how many records, expired or not, the account still owns.
func (s *Store) CountVerifications(accountID bson.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, verification := range s.verifications {
		if verification.AccountID == accountID {
			n++
		}
	}
	return n
}

type sessionRepository struct{ s *Store }

func (r sessionRepository) CreateSession(_ context.Context, session *model.Session) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.sessions[session.SessionID]; exists {
		return nil, fmt.Errorf("%w: session_id", repository.ErrDuplicateKey)
	}

	session.ID = bson.NewObjectID()
	r.s.sessions[session.SessionID] = *session

	out := *session
	return &out, nil
}

func (r sessionRepository) GetSession(_ context.Context, sessionID string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r sessionRepository) RevokeSession(_ context.Context, sessionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(r.s.sessions, sessionID)
	return true, nil
}

func (r sessionRepository) RevokeAccountSessions(_ context.Context, accountID string) (int64, error) {
	oid, err := parseID(accountID)
	if err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, session := range r.s.sessions {
		if session.AccountID == oid {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r sessionRepository) RevokeOtherSessions(_ context.Context, accountID, keepSessionID string) (int64, error) {
	oid, err := parseID(accountID)
	if err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, session := range r.s.sessions {
		if session.AccountID == oid && id != keepSessionID {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountSessions returns the number of live session records of the account.
func (s *Store) CountSessions(accountID bson.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, session := range s.sessions {
		if session.AccountID == accountID {
			n++
		}
	}
	return n
}

type terminationRepository struct{ s *Store }

func (r terminationRepository) EnqueueTermination(
	_ context.Context,
	request *model.TerminationRequest,
) (*model.TerminationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *request
	if existing, ok := r.s.terminations[request.AccountID]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = bson.NewObjectID()
	}
	r.s.terminations[request.AccountID] = stored

	return &stored, nil
}

func (r terminationRepository) CancelTermination(_ context.Context, accountID string) (bool, error) {
	oid, err := parseID(accountID)
	if err != nil {
		return false, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.terminations[oid]; !ok {
		return false, nil
	}
	delete(r.s.terminations, oid)
	return true, nil
}

func (r terminationRepository) GetTermination(
	_ context.Context,
	accountID string,
) (*model.TerminationRequest, bool, error) {
	oid, err := parseID(accountID)
	if err != nil {
		return nil, false, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.terminations[oid]
	if !ok {
		return nil, false, nil
	}
	return &request, true, nil
}

// CountTerminations returns the number of pending termination requests of the account.
func (s *Store) CountTerminations(accountID bson.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.terminations[accountID]; ok {
		return 1
	}
	return 0
}
