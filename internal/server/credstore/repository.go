// Package credstore is the credential store: the durable record of accounts,
// password digests, roles, and per-user last-dataset pointers. Accounts are
// provisioned out of band; this store only reads them and updates the
// last-dataset pointer.
package credstore

import (
	"context"

	"github.com/chipsfactory/prodreport/internal/server/models"
)

type Repository interface {
	// Get returns the account for the given username, or common.ErrNotFound.
	Get(ctx context.Context, username string) (*models.Account, error)

	// Upsert stores the account by username. The write is durable before the
	// call returns; common.ErrStorage wraps any medium failure.
	Upsert(ctx context.Context, account *models.Account) error
}
