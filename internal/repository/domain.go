package repository

import (
	"context"
	"errors"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DomainRepository struct {
	db dbtx
}

func NewDomainRepository(pool *pgxpool.Pool) *DomainRepository {
	return &DomainRepository{db: pool}
}

func NewDomainRepositoryWithTx(tx pgx.Tx) *DomainRepository {
	return &DomainRepository{db: tx}
}

func (r *DomainRepository) Create(ctx context.Context, d *domain.Domain) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO domain_info (domain_id, user_id, domain_name, domain_type, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.UserID, d.Name, d.Type, d.CreatedAt,
	)
	return err
}

func (r *DomainRepository) Get(ctx context.Context, userID, domainID string) (*domain.Domain, error) {
	var d domain.Domain
	err := r.db.QueryRow(ctx,
		`SELECT domain_id, user_id, domain_name, domain_type, created_at
		 FROM domain_info WHERE user_id = $1 AND domain_id = $2`,
		userID, domainID,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Callers distinguish absence from failure themselves.
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DomainRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Domain, error) {
	rows, err := r.db.Query(ctx,
		`SELECT domain_id, user_id, domain_name, domain_type, created_at
		 FROM domain_info WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Domain
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

func (r *DomainRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM domain_info WHERE user_id = $1`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *DomainRepository) Rename(ctx context.Context, domainID, newName string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE domain_info SET domain_name = $1 WHERE domain_id = $2`,
		newName, domainID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}

// Delete removes a domain with its files and their content rows,
// content first so no file row ever points at orphaned rows mid-way.
// The default domain is protected: it reports Protected and deletes
// nothing. Run inside a transaction so the three deletes are one unit.
func (r *DomainRepository) Delete(ctx context.Context, domainID string) (domain.DeleteDomainOutcome, error) {
	var domainType domain.DomainType
	err := r.db.QueryRow(ctx,
		`SELECT domain_type FROM domain_info WHERE domain_id = $1`,
		domainID,
	).Scan(&domainType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DeleteDomainNotFound, nil
		}
		return domain.DeleteDomainNotFound, err
	}

	if domainType == domain.DomainTypeDefault {
		return domain.DeleteDomainProtected, nil
	}

	_, err = r.db.Exec(ctx,
		`DELETE FROM file_content
		 WHERE file_id IN (SELECT file_id FROM file_info WHERE domain_id = $1)`,
		domainID,
	)
	if err != nil {
		return domain.DeleteDomainNotFound, err
	}

	_, err = r.db.Exec(ctx,
		`DELETE FROM file_info WHERE domain_id = $1`,
		domainID,
	)
	if err != nil {
		return domain.DeleteDomainNotFound, err
	}

	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM domain_info WHERE domain_id = $1`,
		domainID,
	)
	if err != nil {
		return domain.DeleteDomainNotFound, err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.DeleteDomainNotFound, nil
	}

	return domain.DeleteDomainDeleted, nil
}
