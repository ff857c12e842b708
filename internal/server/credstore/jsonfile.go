package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/filex"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

// fileAccount is the on-disk shape: a JSON object keyed by username.
type fileAccount struct {
	PasswordHash string `json:"password_hash"`
	FullName     string `json:"full_name,omitempty"`
	Role         string `json:"role"`
	LastDataset  string `json:"last_dataset,omitempty"`
}

// JSONFileRepository keeps accounts in a single JSON file, read wholesale at
// construction and rewritten wholesale (atomic replace + fsync) on every
// update, so a crash right after a successful Upsert cannot lose it.
type JSONFileRepository struct {
	path string

	mu       sync.RWMutex
	accounts map[string]*models.Account
}

func NewJSONFileRepository(path string) (*JSONFileRepository, error) {
	r := &JSONFileRepository{
		path:     path,
		accounts: make(map[string]*models.Account),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file is an empty store; provisioning creates it.
			return r, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw map[string]fileAccount
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for username, fa := range raw {
		role, ok := models.ParseRole(fa.Role)
		if !ok {
			return nil, fmt.Errorf("account %q: unknown role %q", username, fa.Role)
		}
		r.accounts[username] = &models.Account{
			Username:     username,
			PasswordHash: fa.PasswordHash,
			FullName:     fa.FullName,
			Role:         role,
			LastDataset:  fa.LastDataset,
		}
	}

	return r, nil
}

func (r *JSONFileRepository) Get(ctx context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *JSONFileRepository) Upsert(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *account
	previous, existed := r.accounts[account.Username]
	r.accounts[account.Username] = &copied

	if err := r.flushLocked(); err != nil {
		// Roll the in-memory state back so memory and disk stay in step.
		if existed {
			r.accounts[account.Username] = previous
		} else {
			delete(r.accounts, account.Username)
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

func (r *JSONFileRepository) flushLocked() error {
	raw := make(map[string]fileAccount, len(r.accounts))
	for username, a := range r.accounts {
		raw[username] = fileAccount{
			PasswordHash: a.PasswordHash,
			FullName:     a.FullName,
			Role:         string(a.Role),
			LastDataset:  a.LastDataset,
		}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	if err := filex.EnsureParentDir(r.path); err != nil {
		return err
	}
	return filex.WriteFileAtomic(r.path, data, 0o600)
}

// Usernames returns the provisioned usernames in sorted order. Used by the
// CLI provisioning helper and tests; not part of the core contract.
func (r *JSONFileRepository) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.accounts))
	for username := range r.accounts {
		names = append(names, username)
	}
	sort.Strings(names)
	return names
}
