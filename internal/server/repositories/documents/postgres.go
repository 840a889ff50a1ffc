// Package documents provides a PostgreSQL-backed repository for confirmed
// upload records.
package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lifeledger/lifeledger/internal/common"
	"github.com/lifeledger/lifeledger/internal/dbx"
	"github.com/lifeledger/lifeledger/internal/server/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements document storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one record. The unique constraint on s3_key turns repeated
// upload confirmations into common.ErrorAlreadyExists instead of duplicates.
func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (user_id, s3_key, doc_id, doc_type)
		VALUES ($1, $2, $3, $4)
		RETURNING row_id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		doc.UserID, doc.StorageKey, doc.Filename, doc.ContentType).Scan(&doc.RowID, &doc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SelectByUser returns all documents owned by userID, newest first.
func (r *PostgresRepository) SelectByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	query := `
		SELECT row_id, user_id, s3_key, doc_id, doc_type, created_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var item models.Document
		if err := rows.Scan(&item.RowID, &item.UserID, &item.StorageKey, &item.Filename, &item.ContentType, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
