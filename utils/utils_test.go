package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
	Logger = zap.NewNop()
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	token, err := issuer.GenerateToken("admin", RoleAdmin, time.Minute)
	require.NoError(t, err)

	sub, err := issuer.SubjectWithRole(token, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)

	_, err = issuer.SubjectWithRole(token, "pilgrim")
	assert.Error(t, err)

	_, err = NewTokenIssuer("other-secret").SubjectWithRole(token, RoleAdmin)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	token, err := issuer.GenerateToken("admin", RoleAdmin, -time.Minute)
	require.NoError(t, err)

	_, err = issuer.SubjectWithRole(token, RoleAdmin)
	assert.Error(t, err)
}

func TestAbortWithError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   apperror.Code
		detail string
	}{
		{apperror.New(apperror.CodeSlotFull, "slot has 0 place(s) left, 2 requested"), http.StatusConflict, apperror.CodeSlotFull, "slot has 0 place(s) left, 2 requested"},
		{apperror.NotFound("slot not found"), http.StatusNotFound, apperror.CodeNotFound, "slot not found"},
		{errors.New("driver exploded"), http.StatusInternalServerError, apperror.CodeInternal, "internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		AbortWithError(c, "Booking Failed", tc.err)

		assert.Equal(t, tc.status, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Booking Failed", body.Message)
		assert.Equal(t, tc.detail, body.Error)
		assert.Equal(t, tc.code, body.Code)
	}
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL"`)
}

func TestHealthMonitorWithoutDependencies(t *testing.T) {
	m := NewHealthMonitor("memory", nil, nil)
	status := m.Check(context.Background())
	assert.True(t, status.Healthy())
	assert.Nil(t, status.Mongo)
	assert.Equal(t, "memory", m.Status().Store)
}

func TestHealthMonitorReportsDeadRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	m := NewHealthMonitor("mongo", []*redis.Client{client}, nil)
	status := m.Check(context.Background())
	assert.Equal(t, []bool{false}, status.Redis)
	assert.False(t, status.Healthy())
}

func TestNewLoggerLevelOverride(t *testing.T) {
	logger, err := NewLogger(true, "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}
