package dataset

import (
	"context"
	"fmt"

	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/authz"
	"github.com/chipsfactory/prodreport/internal/server/credstore"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

// Service orchestrates dataset loads for authenticated sessions: authorize,
// parse wholesale, swap the session's dataset, then persist the account's
// last-dataset pointer.
type Service struct {
	loader *Loader
	creds  credstore.Repository
	log    logging.Logger
}

func NewService(loader *Loader, creds credstore.Repository, log logging.Logger) *Service {
	return &Service{
		loader: loader,
		creds:  creds,
		log:    log.With("component", "dataset"),
	}
}

// LoadForSession loads a source into the caller's dataset session. Loading
// requires the analyst role. On success the account's last-dataset pointer
// is updated durably; a pointer-update failure is returned but the dataset
// stays loaded, since the load itself completed.
func (s *Service) LoadForSession(ctx context.Context, session *models.Session, data *Session, source string) (*models.Dataset, error) {
	if err := authz.Authorize(session, models.RoleAnalyst); err != nil {
		return nil, err
	}

	ds, err := s.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	data.Replace(ds)
	s.log.Info(ctx, "dataset loaded",
		"username", session.Username, "source", source, "rows", len(ds.Rows))

	account, err := s.creds.Get(ctx, session.Username)
	if err != nil {
		return ds, fmt.Errorf("last-dataset update: %w", err)
	}
	account.LastDataset = source
	if err := s.creds.Upsert(ctx, account); err != nil {
		return ds, fmt.Errorf("last-dataset update: %w", err)
	}

	return ds, nil
}

// LastDataset reports the source the account most recently loaded, if any.
func (s *Service) LastDataset(ctx context.Context, username string) (string, error) {
	account, err := s.creds.Get(ctx, username)
	if err != nil {
		return "", err
	}
	return account.LastDataset, nil
}
