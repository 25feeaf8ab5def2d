package pgrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coaching/core/notification"
)

type tokenRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	Token      string      `db:"token"`
	DeviceID   null.String `db:"device_id"`
	DeviceType string      `db:"device_type"`
	Browser    null.String `db:"browser"`
	IsActive   bool        `db:"is_active"`
	LastUsedAt null.Time   `db:"last_used_at"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
	Inserted   bool        `db:"inserted"`
}

func (r tokenRow) toToken() notification.DeviceToken {
	return notification.DeviceToken{
		ID:         r.ID,
		UserID:     r.UserID,
		Token:      r.Token,
		DeviceID:   r.DeviceID.String,
		DeviceType: notification.DeviceType(r.DeviceType),
		Browser:    r.Browser.String,
		IsActive:   r.IsActive,
		LastUsedAt: r.LastUsedAt.Time.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type tokenRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*tokenRepository)(nil)

func NewTokenRepository(db *sqlx.DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func (repo *tokenRepository) UpsertToken(ctx context.Context, tok notification.DeviceToken) (notification.DeviceToken, bool, error) {
	// xmax = 0 only for freshly inserted rows
	q := `INSERT INTO "device_token"
			("id", "user_id", "token", "device_id", "device_type", "browser", "is_active", "last_used_at", "created_at", "updated_at")
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $9)
		ON CONFLICT ("token") DO UPDATE SET
			"user_id" = EXCLUDED."user_id",
			"device_id" = EXCLUDED."device_id",
			"device_type" = EXCLUDED."device_type",
			"browser" = EXCLUDED."browser",
			"is_active" = TRUE,
			"last_used_at" = EXCLUDED."last_used_at",
			"updated_at" = EXCLUDED."updated_at"
		RETURNING "id", "user_id", "token", "device_id", "device_type", "browser", "is_active", "last_used_at",
			"created_at", "updated_at", (xmax = 0) AS "inserted"`

	var row tokenRow
	err := repo.db.GetContext(ctx, &row, q,
		tok.ID, tok.UserID, tok.Token, nullString(tok.DeviceID), string(tok.DeviceType), nullString(tok.Browser),
		null.TimeFrom(tok.LastUsedAt), tok.CreatedAt, tok.UpdatedAt)
	if err != nil {
		return notification.DeviceToken{}, false, wrapErr(err, "upserting device token")
	}
	return row.toToken(), row.Inserted, nil
}

func (repo *tokenRepository) ActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []string
	q := `SELECT "token" FROM "device_token" WHERE "user_id" = ANY($1) AND "is_active" ORDER BY "created_at", "token"`
	if err := repo.db.SelectContext(ctx, &tokens, q, pq.Array(userIDs)); err != nil {
		return nil, wrapErr(err, "selecting active tokens")
	}
	return tokens, nil
}

func (repo *tokenRepository) DeactivateTokens(ctx context.Context, tokens ...string) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE "device_token" SET "is_active" = FALSE, "updated_at" = NOW() WHERE "token" = ANY($1) AND "is_active"`,
		pq.Array(tokens))
	return rowsAffected(res, err, "deactivating tokens")
}

func (repo *tokenRepository) DeactivateUserTokens(ctx context.Context, userID string, updatedAt time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE "device_token" SET "is_active" = FALSE, "updated_at" = $1 WHERE "user_id" = $2 AND "is_active"`,
		updatedAt, userID)
	return rowsAffected(res, err, "deactivating user tokens")
}

func (repo *tokenRepository) DeleteInactiveTokens(ctx context.Context, updatedBefore time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM "device_token" WHERE NOT "is_active" AND "updated_at" < $1`, updatedBefore)
	return rowsAffected(res, err, "deleting inactive tokens")
}

func (repo *tokenRepository) DeleteUnusedTokens(ctx context.Context, lastUsedBefore time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM "device_token" WHERE "last_used_at" < $1`, lastUsedBefore)
	return rowsAffected(res, err, "deleting stale tokens")
}
