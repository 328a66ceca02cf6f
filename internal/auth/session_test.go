package auth

import (
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"money_service/internal/negotiate"
	"money_service/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=") // unpadded base32
}

// expiryAtLeast matches an int64 expiry argument no earlier than min.
type expiryAtLeast struct{ min int64 }

func (m expiryAtLeast) Match(v driver.Value) bool {
	ts, ok := v.(int64)
	return ok && ts >= m.min
}

func TestIssueTokenPersistsFullLifetime(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	before := time.Now().Add(TokenLifetime).Unix()

	// The persisted expiry must carry the whole lifetime from now
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `auth_tokens`").
		WithArgs(sqlmock.AnyArg(), "alice", expiryAtLeast{min: before}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	token, err := IssueToken(db, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupSlidesExpiry(t *testing.T) {
	db, mock := testutil.NewMockDB(t)

	rows := sqlmock.NewRows([]string{"token", "username", "expire_timestamp"}).
		AddRow("tok123", "alice", time.Now().Add(time.Hour).Unix())
	mock.ExpectQuery("SELECT (.+) FROM `auth_tokens` WHERE token = (.+) AND expire_timestamp > (.+)").
		WillReturnRows(rows)
	// Authentication is a mutating read: the expiry must be pushed forward
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `auth_tokens` SET `expire_timestamp`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	username, ok := Lookup(db, "tok123")
	require.True(t, ok)
	assert.Equal(t, "alice", username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupUnknownTokenIsAnonymous(t *testing.T) {
	db, mock := testutil.NewMockDB(t)

	// Expired and unknown tokens both match zero rows; no slide happens
	mock.ExpectQuery("SELECT (.+) FROM `auth_tokens` WHERE token = (.+) AND expire_timestamp > (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"token", "username", "expire_timestamp"}))

	_, ok := Lookup(db, "expired")
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newSessionRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := testutil.NewMockDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(negotiate.Middleware(), Middleware(db))
	r.GET("/whoami", func(c *gin.Context) {
		username, _, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.String(http.StatusOK, username)
	})
	return r, mock
}

func expectHit(mock sqlmock.Sqlmock, username string) {
	rows := sqlmock.NewRows([]string{"token", "username", "expire_timestamp"}).
		AddRow("tok123", username, time.Now().Add(time.Hour).Unix())
	mock.ExpectQuery("SELECT (.+) FROM `auth_tokens` WHERE token = (.+) AND expire_timestamp > (.+)").
		WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `auth_tokens` SET `expire_timestamp`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestMiddlewareHeaderTransport(t *testing.T) {
	r, mock := newSessionRouter(t)
	expectHit(mock, "alice")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(AuthIdent, "tok123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddlewareCookieTransport(t *testing.T) {
	r, mock := newSessionRouter(t)
	expectHit(mock, "bob")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: AuthIdent, Value: "tok123"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddlewareNoTransportFallback(t *testing.T) {
	r, mock := newSessionRouter(t)
	// HTML requests never read the header transport: no storage lookup at all

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set(AuthIdent, "tok123") // header only, no cookie
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddlewareInvalidTokenIsAnonymous(t *testing.T) {
	r, mock := newSessionRouter(t)
	mock.ExpectQuery("SELECT (.+) FROM `auth_tokens` WHERE token = (.+) AND expire_timestamp > (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"token", "username", "expire_timestamp"}))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(AuthIdent, "stale")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
