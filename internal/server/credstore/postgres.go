package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

// PostgresRepository stores accounts in the accounts table. Durability comes
// from the database commit; each call is a single implicit transaction.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT username, password_hash, full_name, role, last_dataset FROM accounts
		 WHERE username = $1
		 `

	account := &models.Account{}
	var role string
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.Username, &account.PasswordHash, &account.FullName, &role, &account.LastDataset)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	parsed, ok := models.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("account %q: unknown role %q", username, role)
	}
	account.Role = parsed

	return account, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, account *models.Account) error {
	query :=
		`INSERT INTO accounts (username, password_hash, full_name, role, last_dataset)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash,
		     full_name = EXCLUDED.full_name,
		     role = EXCLUDED.role,
		     last_dataset = EXCLUDED.last_dataset
		 `

	_, err := r.db.ExecContext(ctx, query,
		account.Username, account.PasswordHash, account.FullName, string(account.Role), account.LastDataset)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return nil
}
