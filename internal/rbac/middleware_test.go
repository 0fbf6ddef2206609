package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-iam/argus/internal/rbac"
	"github.com/argus-iam/argus/internal/shared"
	_ "github.com/argus-iam/argus/testing"
)

type stubPermissionRepo struct {
	effective map[int64][]string
}

func (s *stubPermissionRepo) UpsertPermission(ctx context.Context, p rbac.Permission) (rbac.Permission, error) {
	return p, nil
}

func (s *stubPermissionRepo) GetPermissionByName(ctx context.Context, name string) (rbac.Permission, error) {
	return rbac.Permission{}, rbac.ErrNotFound
}

func (s *stubPermissionRepo) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *stubPermissionRepo) InsertGrant(ctx context.Context, roleID, permissionID, createdBy int64) error {
	return nil
}

func (s *stubPermissionRepo) RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *stubPermissionRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	return nil
}

func (s *stubPermissionRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return nil
}

func (s *stubPermissionRepo) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.effective[userID], nil
}

func authedRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "argus_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAnyWithoutSession(t *testing.T) {
	mw := rbac.Middleware{Service: rbac.NewService(&stubPermissionRepo{})}

	var called bool
	handler := mw.RequireAny("users:list")(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.False(t, called)
}

func TestRequireAnyForbidden(t *testing.T) {
	repo := &stubPermissionRepo{effective: map[int64][]string{7: {"roles:list"}}}
	mw := rbac.Middleware{Service: rbac.NewService(repo)}

	var called bool
	handler := mw.RequireAny("users:list")(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, "7"))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, called)
}

func TestRequireAnyGranted(t *testing.T) {
	repo := &stubPermissionRepo{effective: map[int64][]string{7: {"users:list", "roles:list"}}}
	mw := rbac.Middleware{Service: rbac.NewService(repo)}

	var called bool
	handler := mw.RequireAny("users:list", "users:read")(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, "7"))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	repo := &stubPermissionRepo{effective: map[int64][]string{7: {"users:list"}}}
	mw := rbac.Middleware{Service: rbac.NewService(repo)}

	var called bool
	handler := mw.RequireAll("users:list", "users:edit")(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, "7"))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, called)
}

func TestRequireAllGranted(t *testing.T) {
	repo := &stubPermissionRepo{effective: map[int64][]string{7: {"users:list", "users:edit"}}}
	mw := rbac.Middleware{Service: rbac.NewService(repo)}

	var called bool
	handler := mw.RequireAll("users:list", "users:edit")(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, "7"))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
}

func TestRequireAnyEmptyListPassesThrough(t *testing.T) {
	mw := rbac.Middleware{Service: rbac.NewService(&stubPermissionRepo{})}

	var called bool
	handler := mw.RequireAny()(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
}

func TestRequireAnyMalformedUserID(t *testing.T) {
	mw := rbac.Middleware{Service: rbac.NewService(&stubPermissionRepo{})}

	var called bool
	handler := mw.RequireAny("users:list")(okHandler(&called))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authedRequest(t, "not-a-number"))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.False(t, called)
}
