package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) GetRef(ctx context.Context, userID string) (*messaging.UserRef, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var ref messaging.UserRef
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, full_name FROM app_user WHERE id = $1::uuid`,
		userID,
	).Scan(&ref.ID, &ref.FullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *PgUserRepository) GetPushTarget(ctx context.Context, userID string) (*messaging.PushTarget, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var (
		token  *string
		target messaging.PushTarget
	)
	err := r.pool.QueryRow(ctx,
		`SELECT fcm_token, allow_notifications FROM app_user WHERE id = $1::uuid`,
		userID,
	).Scan(&token, &target.AllowNotifications)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if token != nil {
		target.FCMToken = *token
	}
	return &target, nil
}

func (r *PgUserRepository) SetPushToken(ctx context.Context, userID, token string) error {
	return r.updateUser(ctx, `UPDATE app_user SET fcm_token = $2 WHERE id = $1::uuid`, userID, token)
}

func (r *PgUserRepository) ClearPushToken(ctx context.Context, userID string) error {
	return r.updateUser(ctx, `UPDATE app_user SET fcm_token = NULL WHERE id = $1::uuid`, userID)
}

func (r *PgUserRepository) SetAllowNotifications(ctx context.Context, userID string, allow bool) error {
	return r.updateUser(ctx, `UPDATE app_user SET allow_notifications = $2 WHERE id = $1::uuid`, userID, allow)
}

func (r *PgUserRepository) updateUser(ctx context.Context, sql string, args ...any) error {
	if r == nil || r.pool == nil {
		return errors.New("PgUserRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrNotFound
	}
	return nil
}
