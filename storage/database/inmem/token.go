package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
)

// TokenRepository is the in-memory device token store.
type TokenRepository struct {
	db *tokenTable
}

var _ notification.Repository = (*TokenRepository)(nil)

func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db.token}
}

func (repo *TokenRepository) UpsertToken(_ context.Context, tok notification.DeviceToken) (notification.DeviceToken, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, t := range repo.db.rows {
		if t.Token == tok.Token {
			t.UserID = tok.UserID
			t.DeviceID = tok.DeviceID
			t.DeviceType = tok.DeviceType
			t.Browser = tok.Browser
			t.IsActive = true
			t.LastUsedAt = tok.LastUsedAt
			t.UpdatedAt = tok.UpdatedAt
			return *t, false, nil
		}
	}
	tok.IsActive = true
	repo.db.rows = append(repo.db.rows, &tok)
	return tok, true, nil
}

func (repo *TokenRepository) ActiveTokens(_ context.Context, userIDs []string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}
	tokens := make([]string, 0)
	for _, t := range repo.db.rows {
		if t.IsActive && users[t.UserID] {
			tokens = append(tokens, t.Token)
		}
	}
	return tokens, nil
}

func (repo *TokenRepository) update(match func(t *notification.DeviceToken) bool, updatedAt time.Time) int {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n := 0
	for _, t := range repo.db.rows {
		if t.IsActive && match(t) {
			t.IsActive = false
			t.UpdatedAt = updatedAt
			n++
		}
	}
	return n
}

func (repo *TokenRepository) DeactivateTokens(_ context.Context, tokens ...string) (int, error) {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return repo.update(func(t *notification.DeviceToken) bool { return set[t.Token] }, core.NowFunc().UTC()), nil
}

func (repo *TokenRepository) DeactivateUserTokens(_ context.Context, userID string, updatedAt time.Time) (int, error) {
	return repo.update(func(t *notification.DeviceToken) bool { return t.UserID == userID }, updatedAt), nil
}

func (repo *TokenRepository) delete(match func(t *notification.DeviceToken) bool) int {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	kept := repo.db.rows[:0]
	n := 0
	for _, t := range repo.db.rows {
		if match(t) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	repo.db.rows = kept
	return n
}

func (repo *TokenRepository) DeleteInactiveTokens(_ context.Context, updatedBefore time.Time) (int, error) {
	return repo.delete(func(t *notification.DeviceToken) bool {
		return !t.IsActive && t.UpdatedAt.Before(updatedBefore)
	}), nil
}

func (repo *TokenRepository) DeleteUnusedTokens(_ context.Context, lastUsedBefore time.Time) (int, error) {
	return repo.delete(func(t *notification.DeviceToken) bool {
		return !t.LastUsedAt.IsZero() && t.LastUsedAt.Before(lastUsedBefore)
	}), nil
}

// Tokens returns a snapshot of all stored tokens.
func (repo *TokenRepository) Tokens() []notification.DeviceToken {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tokens := make([]notification.DeviceToken, 0, len(repo.db.rows))
	for _, t := range repo.db.rows {
		tokens = append(tokens, *t)
	}
	return tokens
}
