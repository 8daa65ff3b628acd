package repository

import (
	"context"
	"errors"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db dbtx
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

func NewUserRepositoryWithTx(tx pgx.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_info (user_id, user_name, user_surname, user_email, user_type, picture_url, user_created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Surname, u.Email, u.Tier, nullableString(u.PictureURL), u.CreatedAt,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	var pictureURL *string
	err := r.db.QueryRow(ctx,
		`SELECT user_id, user_name, user_surname, user_email, user_type, picture_url, user_created_at
		 FROM user_info WHERE user_id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Tier, &pictureURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if pictureURL != nil {
		u.PictureURL = *pictureURL
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	var pictureURL *string
	err := r.db.QueryRow(ctx,
		`SELECT user_id, user_name, user_surname, user_email, user_type, picture_url, user_created_at
		 FROM user_info WHERE user_email = $1 LIMIT 1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Tier, &pictureURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absence is a normal outcome here: registration probes
			// by email before creating.
			return nil, nil
		}
		return nil, err
	}
	if pictureURL != nil {
		u.PictureURL = *pictureURL
	}
	return &u, nil
}

// GetTierForUpdate reads the user's tier under a row lock. Admission
// checks run against this inside the same transaction as the write, so
// concurrent batches from one user serialize instead of jointly
// slipping past the ceiling.
func (r *UserRepository) GetTierForUpdate(ctx context.Context, userID string) (domain.Tier, error) {
	var tier domain.Tier
	err := r.db.QueryRow(ctx,
		`SELECT user_type FROM user_info WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}
	return tier, nil
}

func (r *UserRepository) UpdateTier(ctx context.Context, userID string, tier domain.Tier) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE user_info SET user_type = $1 WHERE user_id = $2`,
		tier, userID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UserPageResult is one page of users with a cursor to the next.
type UserPageResult struct {
	Items      []*domain.User
	NextCursor string
	HasMore    bool
}

// ListWithCursor pages through all accounts, newest first. Cursor
// pagination keeps the admin listing stable while users register
// concurrently.
func (r *UserRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*UserPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT user_id, user_name, user_surname, user_email, user_type, picture_url, user_created_at
			 FROM user_info
			 WHERE (user_created_at, user_id) < ($1, $2)
			 ORDER BY user_created_at DESC, user_id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT user_id, user_name, user_surname, user_email, user_type, picture_url, user_created_at
			 FROM user_info
			 ORDER BY user_created_at DESC, user_id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		var pictureURL *string
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Tier, &pictureURL, &u.CreatedAt); err != nil {
			return nil, err
		}
		if pictureURL != nil {
			u.PictureURL = *pictureURL
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}

	var nextCursor string
	if hasMore && len(users) > 0 {
		last := users[len(users)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &UserPageResult{Items: users, NextCursor: nextCursor, HasMore: hasMore}, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
