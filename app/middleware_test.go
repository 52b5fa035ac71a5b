package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campuslink/models"
	"campuslink/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSessions map[string]*session.AppSession

func (m memSessions) Get(_ context.Context, id string) (*session.AppSession, error) {
	if as, ok := m[id]; ok {
		return as, nil
	}
	return nil, redis.Nil
}

func (m memSessions) Delete(_ context.Context, id string) error {
	delete(m, id)
	return nil
}

func (m memSessions) Refresh(_ context.Context, id, _ string) error {
	if as, ok := m[id]; ok {
		as.ExpiresAt = as.ExpiresAt.Add(time.Hour)
	}
	return nil
}

type memUsers map[string]*models.User

func (m memUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

type countingToucher struct{ n int }

func (c *countingToucher) TouchUserSeen(context.Context, string) error {
	c.n++
	return nil
}

func roleAdmin(u *models.User) bool { return u.IsAdmin() }

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, H{"uid": UserID(c), "admin": c.GetBool("isAdmin")})
	})
	r.GET("/x", h...)
	return r
}

func TestAuthRequired(t *testing.T) {
	sess := memSessions{
		"good":   {UserID: "u1"},
		"orphan": {UserID: "gone"},
	}
	users := memUsers{"u1": {ID: "u1", Role: models.RoleStudent}}
	r := newTestRouter(AuthRequired(sess, users, roleAdmin))

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"header token", "good", "", http.StatusOK},
		{"cookie token", "", "good", http.StatusOK},
		{"unknown session", "bad", "", http.StatusUnauthorized},
		{"deleted user", "orphan", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set(AuthTokenHeader, tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AppSessionCookie, Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
	assert.False(t, sess["good"].ExpiresAt.IsZero(), "active session is refreshed")
	_, stillThere := sess["orphan"]
	assert.False(t, stillThere, "session of a deleted user is dropped")
}

func TestAdminOnly(t *testing.T) {
	sess := memSessions{"s": {UserID: "u1"}, "a": {UserID: "u2"}}
	users := memUsers{
		"u1": {ID: "u1", Role: models.RoleStudent},
		"u2": {ID: "u2", Role: models.RoleAdmin},
	}
	r := newTestRouter(AuthRequired(sess, users, roleAdmin), AdminOnly())

	for token, want := range map[string]int{"s": http.StatusForbidden, "a": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(AuthTokenHeader, token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}
}

func TestTouchLastSeenThrottles(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	toucher := &countingToucher{}
	setUser := func(c *gin.Context) { c.Set("userID", "u1"); c.Next() }
	r := newTestRouter(setUser, TouchLastSeen(toucher, rdb, time.Minute))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, toucher.n)

	mr.FastForward(2 * time.Minute)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, 2, toucher.n)
}
