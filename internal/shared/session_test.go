package shared

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

	_ "github.com/farmlink/farmlink-admin/internal/testing/guard"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	sess.Set("key", "value")
	sess.SetUser("u1")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "saved"})

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	// Replay the cookie on a second request.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})

	restored, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "value", restored.Get("key"))
	assert.Equal(t, "u1", restored.User())

	flash := restored.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "saved", flash.Message)
	assert.Nil(t, restored.PopFlash())
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("key", "value")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	sm.Destroy(sess)
	res = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	// The cookie is expired and the stored payload is gone.
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, -1, cookies[0].MaxAge)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	restored, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "", restored.Get("key"))
}

func TestCSRFTokenVerify(t *testing.T) {
	cm := NewCSRFManager("secret")
	ctx := context.Background()
	sess := &Session{ID: "sess-1"}

	token, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// EnsureToken is idempotent per session.
	again, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, cm.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, cm.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, cm.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, cm.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)
}

func TestNewPagination(t *testing.T) {
	page := NewPagination(2, 20, 45)
	assert.Equal(t, Pagination{Page: 2, PerPage: 20, Total: 45, TotalPages: 3}, page)

	// Defaults kick in for out-of-range inputs.
	page = NewPagination(0, 0, 5)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 5, TotalPages: 1}, page)
}

func TestListFiltersOffset(t *testing.T) {
	assert.Equal(t, 0, ListFilters{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, ListFilters{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, 0, ListFilters{Page: 3}.Offset())
}
