package dataset

import (
	"sync"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

// Session holds the dataset loaded for one login session. Readers get the
// current snapshot; Replace swaps it wholesale so a reader never observes a
// half-updated dataset. Cell writes go through SetCell, which the edit
// gateway is the only caller of.
type Session struct {
	mu sync.RWMutex
	ds *models.Dataset
}

func NewSession() *Session {
	return &Session{}
}

// Current returns the loaded dataset, or nil when nothing has been loaded.
// Callers must treat the returned rows as read-only.
func (s *Session) Current() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// Replace installs a freshly loaded dataset. Only the load path calls this.
func (s *Session) Replace(ds *models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
}

// SetCell writes one cell of the current dataset under the write lock.
func (s *Session) SetCell(rowID, columnIdx int, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ds == nil {
		return common.ErrRowNotFound
	}
	row := s.ds.RowByID(rowID)
	if row == nil {
		return common.ErrRowNotFound
	}
	if columnIdx < 0 || columnIdx >= len(row.Cells) {
		return common.ErrColumnNotFound
	}
	row.Cells[columnIdx] = value
	return nil
}
