package repository

import (
	"context"
	"errors"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db dbtx
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

func NewSessionRepositoryWithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Ensure creates the (user, session) row on first sight; that first
// sight is the visit counted in total_enterance. Later calls only
// touch last_enterance, so asking questions in an existing session
// never inflates the visit count.
func (r *SessionRepository) Ensure(ctx context.Context, userID, sessionID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO session_info (user_id, session_id, question_count, total_enterance, created_at, last_enterance)
		 VALUES ($1, $2, 0, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, session_id) DO UPDATE
		 SET last_enterance = CURRENT_TIMESTAMP`,
		userID, sessionID,
	)
	return err
}

// DailyQuestionCount sums question_count across all of the user's
// sessions created in the trailing 24 hours.
func (r *SessionRepository) DailyQuestionCount(ctx context.Context, userID string) (int, error) {
	var count *int
	err := r.db.QueryRow(ctx,
		`SELECT SUM(question_count) FROM session_info
		 WHERE user_id = $1
		 AND created_at >= CURRENT_TIMESTAMP - INTERVAL '24 hours'
		 AND created_at <= CURRENT_TIMESTAMP`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == nil {
		return 0, nil
	}
	return *count, nil
}

// TryIncrementQuestion is the atomic check-and-increment for the daily
// question quota. The rolling-24h guard and the increment are one SQL
// statement, so two concurrent questions from the same user cannot
// both observe count 24 and jointly reach 26. A limit of zero means
// unlimited. Returns the session's new question count, or
// (0, false, nil) when the ceiling was already met, in which case the
// counter was NOT incremented.
func (r *SessionRepository) TryIncrementQuestion(ctx context.Context, userID, sessionID string, limit int) (int, bool, error) {
	var questionCount int
	var err error
	if limit <= 0 {
		err = r.db.QueryRow(ctx,
			`UPDATE session_info
			 SET question_count = question_count + 1, last_enterance = CURRENT_TIMESTAMP
			 WHERE user_id = $1 AND session_id = $2
			 RETURNING question_count`,
			userID, sessionID,
		).Scan(&questionCount)
	} else {
		err = r.db.QueryRow(ctx,
			`UPDATE session_info
			 SET question_count = question_count + 1, last_enterance = CURRENT_TIMESTAMP
			 WHERE user_id = $1 AND session_id = $2
			 AND (SELECT COALESCE(SUM(question_count), 0) FROM session_info
			      WHERE user_id = $1
			      AND created_at >= CURRENT_TIMESTAMP - INTERVAL '24 hours'
			      AND created_at <= CURRENT_TIMESTAMP) < $3
			 RETURNING question_count`,
			userID, sessionID, limit,
		).Scan(&questionCount)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return questionCount, true, nil
}

// Get returns the session row for a (user, session) pair.
func (r *SessionRepository) Get(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, session_id, question_count, total_enterance, created_at, last_enterance
		 FROM session_info WHERE user_id = $1 AND session_id = $2`,
		userID, sessionID,
	).Scan(&s.ID, &s.UserID, &s.SessionID, &s.QuestionCount, &s.TotalEnterance, &s.CreatedAt, &s.LastEnterance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// PruneOlderThan deletes session rows whose last activity predates the
// cutoff. Rows inside the rolling quota window are never touched.
func (r *SessionRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM session_info WHERE last_enterance < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
