package repomanager

import (
	"context"
	"database/sql"

	"github.com/lifeledger/lifeledger/internal/dbx"
	"github.com/lifeledger/lifeledger/internal/server/repositories/documents"
)

// RepositoryManager hands out repositories bound to a *sql.DB or *sql.Tx,
// letting services pick transactional or plain handles per call.
type RepositoryManager interface {
	Documents(db dbx.DBTX) documents.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
