package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/audit"
	"github.com/chipsfactory/prodreport/internal/server/models"
	"github.com/chipsfactory/prodreport/internal/server/report"
)

// abortWithError maps the error taxonomy onto HTTP status codes. Not-found
// style errors are reported with a generic message so responses do not
// reveal whether a withheld resource exists.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrInvalidCredentials.Error()})
	case errors.Is(err, common.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, common.ErrDenied):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, common.ErrRowNotFound),
		errors.Is(err, common.ErrColumnNotFound),
		errors.Is(err, common.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrTypeMismatch):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrMalformedDataset), errors.Is(err, common.ErrEmptyDataset):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrStorage):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "storage failure"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	result, err := s.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     result.Token,
		"role":      result.Session.Role,
		"full_name": result.Session.FullName,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	session := currentSession(c)
	if err := s.sessions.Logout(c.Request.Context(), session.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type loadRequest struct {
	Source string `json:"source" binding:"required"`
}

func (s *Server) handleLoadDataset(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source required"})
		return
	}

	session := currentSession(c)
	data := s.sessions.Dataset(session.ID)
	if data == nil {
		abortWithError(c, common.ErrUnauthenticated)
		return
	}

	ds, err := s.datasets.LoadForSession(c.Request.Context(), session, data, req.Source)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  ds.Source,
		"rows":    len(ds.Rows),
		"columns": len(ds.Columns),
	})
}

type columnJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rowJSON struct {
	RowID int               `json:"row_id"`
	Cells map[string]string `json:"cells"`
}

func (s *Server) handleGetDataset(c *gin.Context) {
	ds := s.currentDataset(c)
	if ds == nil {
		c.JSON(http.StatusOK, gin.H{"loaded": false})
		return
	}

	columns := make([]columnJSON, len(ds.Columns))
	for i, col := range ds.Columns {
		columns[i] = columnJSON{Name: col.Name, Type: col.Type.String()}
	}

	rows := make([]rowJSON, len(ds.Rows))
	for i, row := range ds.Rows {
		cells := make(map[string]string, len(ds.Columns))
		for j, col := range ds.Columns {
			cells[col.Name] = models.FormatCell(row.Cells[j])
		}
		rows[i] = rowJSON{RowID: row.ID, Cells: cells}
	}

	c.JSON(http.StatusOK, gin.H{
		"loaded":    true,
		"source":    ds.Source,
		"loaded_at": ds.LoadedAt,
		"columns":   columns,
		"rows":      rows,
	})
}

func (s *Server) handleReport(c *gin.Context) {
	ds := s.currentDataset(c)
	if ds == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset loaded"})
		return
	}

	c.JSON(http.StatusOK, report.Calculate(ds).Formatted())
}

type editRequest struct {
	RowID    *int   `json:"row_id" binding:"required"`
	Column   string `json:"column" binding:"required"`
	NewValue string `json:"new_value"`
}

func (s *Server) handleEdit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "row_id and column required"})
		return
	}

	session := currentSession(c)
	data := s.sessions.Dataset(session.ID)
	if data == nil {
		abortWithError(c, common.ErrUnauthenticated)
		return
	}

	if err := s.gateway.EditCell(c.Request.Context(), session, data, *req.RowID, req.Column, req.NewValue); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type auditRecordJSON struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	RowID     int    `json:"row_id"`
	Column    string `json:"column"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

func (s *Server) handleAudit(c *gin.Context) {
	records, err := s.trail.ReadAll(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]auditRecordJSON, len(records))
	for i, r := range records {
		out[i] = auditRecordJSON{
			Timestamp: r.Timestamp.Format(audit.TimestampFormat),
			Username:  r.Username,
			RowID:     r.RowID,
			Column:    r.Column,
			OldValue:  r.OldValue,
			NewValue:  r.NewValue,
		}
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleAssistant(c *gin.Context) {
	if s.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question required"})
		return
	}

	session := currentSession(c)
	ds := s.currentDataset(c)
	if ds == nil {
		// Fall back to the dataset the account last worked with.
		last, err := s.datasets.LastDataset(c.Request.Context(), session.Username)
		if err != nil || last == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "no dataset loaded"})
			return
		}
		data := s.sessions.Dataset(session.ID)
		loaded, err := s.datasets.LoadForSession(c.Request.Context(), session, data, last)
		if err != nil {
			abortWithError(c, err)
			return
		}
		ds = loaded
	}

	answer, err := s.assistant.Ask(c.Request.Context(), ds, req.Question)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant backend failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (s *Server) currentDataset(c *gin.Context) *models.Dataset {
	session := currentSession(c)
	if session == nil {
		return nil
	}
	data := s.sessions.Dataset(session.ID)
	if data == nil {
		return nil
	}
	return data.Current()
}
