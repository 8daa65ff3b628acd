package repository

import (
	"context"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type FileRepository struct {
	db dbtx
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: pool}
}

func NewFileRepositoryWithTx(tx pgx.Tx) *FileRepository {
	return &FileRepository{db: tx}
}

// InsertBatch writes file metadata and content rows. Callers run it
// through the TxRunner so metadata and content land atomically;
// partial insertion of one without the other is never observable.
func (r *FileRepository) InsertBatch(ctx context.Context, files []*domain.File, units []domain.ContentUnit) error {
	for _, f := range files {
		_, err := r.db.Exec(ctx,
			`INSERT INTO file_info (file_id, domain_id, user_id, file_name, file_modified_date, file_upload_date)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			f.ID, f.DomainID, f.UserID, f.Name, f.ModifiedDate, f.UploadDate,
		)
		if err != nil {
			return err
		}
	}

	for _, u := range units {
		_, err := r.db.Exec(ctx,
			`INSERT INTO file_content (file_id, sentence, page_number, is_header, is_table, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			u.FileID, u.Sentence, u.PageNumber, u.IsHeader, u.IsTable, pgvector.NewVector(u.Embedding),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *FileRepository) ListByDomain(ctx context.Context, userID, domainID string) ([]*domain.File, error) {
	rows, err := r.db.Query(ctx,
		`SELECT file_id, domain_id, user_id, file_name, file_modified_date, file_upload_date
		 FROM file_info WHERE user_id = $1 AND domain_id = $2 ORDER BY file_upload_date, file_id`,
		userID, domainID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.File
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.DomainID, &f.UserID, &f.Name, &f.ModifiedDate, &f.UploadDate); err != nil {
			return nil, err
		}
		results = append(results, &f)
	}
	return results, rows.Err()
}

func (r *FileRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(file_id) FROM file_info WHERE user_id = $1`,
		userID,
	).Scan(&count)
	return count, err
}

// GetContent reads ciphertext rows and their embeddings for a set of
// files, aligned row for row. Any row missing its embedding makes the
// whole read a miss (nil, nil): callers must never assemble a working
// set from a partial result.
func (r *FileRepository) GetContent(ctx context.Context, fileIDs []string) ([]service.ContentRow, [][]float32, error) {
	if len(fileIDs) == 0 {
		return nil, nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT c.file_id, f.file_name, c.sentence, c.page_number, c.is_header, c.is_table, c.embedding
		 FROM file_content c
		 LEFT JOIN file_info f ON c.file_id = f.file_id
		 WHERE c.file_id = ANY($1)
		 ORDER BY c.file_id, c.id`,
		fileIDs,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var content []service.ContentRow
	var embeddings [][]float32
	for rows.Next() {
		var row service.ContentRow
		var fileName *string
		var vec *pgvector.Vector
		if err := rows.Scan(&row.FileID, &fileName, &row.Sentence, &row.PageNumber, &row.IsHeader, &row.IsTable, &vec); err != nil {
			return nil, nil, err
		}
		if vec == nil {
			return nil, nil, nil
		}
		if fileName != nil {
			row.FileName = *fileName
		}
		content = append(content, row)
		embeddings = append(embeddings, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return content, embeddings, nil
}

// Delete removes a file's content rows and then its metadata.
func (r *FileRepository) Delete(ctx context.Context, fileID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM file_content WHERE file_id = $1`,
		fileID,
	)
	if err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM file_info WHERE file_id = $1`,
		fileID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}
