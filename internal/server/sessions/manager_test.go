package sessions

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/auth"
	"github.com/chipsfactory/prodreport/internal/server/credstore"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.json")
	repo, err := credstore.NewJSONFileRepository(path)
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(context.Background(), &models.Account{
		Username:     "carol",
		PasswordHash: auth.HashPassword("letmein"),
		FullName:     "Carol C.",
		Role:         models.RoleAnalyst,
	}))

	return NewManager(repo, []byte("test-secret"), time.Hour, testLogger())
}

func TestManager_LoginSuccess(t *testing.T) {
	m := newTestManager(t)

	result, err := m.Login(context.Background(), "carol", "letmein")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Session.ID)
	assert.Equal(t, "carol", result.Session.Username)
	assert.Equal(t, models.RoleAnalyst, result.Session.Role)
	assert.False(t, result.Session.AuthenticatedAt.IsZero())
	assert.NotEmpty(t, result.Token)

	assert.NotNil(t, m.Dataset(result.Session.ID))
}

func TestManager_LoginWrongPassword(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Login(context.Background(), "carol", "wrongpass")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestManager_LoginUnknownUserSameError(t *testing.T) {
	m := newTestManager(t)

	_, wrongPass := m.Login(context.Background(), "carol", "wrongpass")
	_, unknownUser := m.Login(context.Background(), "mallory", "whatever")

	// unknown account and bad password are indistinguishable
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
	assert.ErrorIs(t, unknownUser, common.ErrInvalidCredentials)
}

func TestManager_ResolveRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	result, err := m.Login(ctx, "carol", "letmein")
	require.NoError(t, err)

	session, err := m.Resolve(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Session.ID, session.ID)
}

func TestManager_LogoutInvalidatesToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	result, err := m.Login(ctx, "carol", "letmein")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, result.Session.ID))

	_, err = m.Resolve(ctx, result.Token)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Nil(t, m.Dataset(result.Session.ID))

	assert.ErrorIs(t, m.Logout(ctx, result.Session.ID), common.ErrUnauthenticated)
}

func TestManager_ResolveGarbageToken(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Resolve(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestManager_IndependentSessionsGetIndependentDatasets(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Login(ctx, "carol", "letmein")
	require.NoError(t, err)
	second, err := m.Login(ctx, "carol", "letmein")
	require.NoError(t, err)

	require.NotEqual(t, first.Session.ID, second.Session.ID)
	if m.Dataset(first.Session.ID) == m.Dataset(second.Session.ID) {
		t.Fatal("expected each session to own its own dataset session")
	}
}
