package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "99,441", FormatCount(99441))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 58,90", FormatBRL(58.90))
	assert.Equal(t, "R$ 13.591.643,70", FormatBRL(13591643.70))
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", FormatTimeAgo(now.Add(-30*time.Second)))
	assert.Equal(t, "5m ago", FormatTimeAgo(now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", FormatTimeAgo(now.Add(-3*time.Hour)))
	assert.Equal(t, "2d ago", FormatTimeAgo(now.Add(-49*time.Hour)))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{59 * time.Second, "59.0s"},
		{90 * time.Second, "1m30s"},
		{5 * time.Minute, "5m0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "3e9a1c42", TruncateID("3e9a1c42-8f6b-4d2a-9c7e-1f5a6b8d0e2c"))
	assert.Equal(t, "short", TruncateID("short"))
}

func TestRunStatusBadgeClass(t *testing.T) {
	assert.Equal(t, "badge--completed", RunStatusBadgeClass("completed"))
	assert.Equal(t, "badge--running", RunStatusBadgeClass("running"))
	assert.Equal(t, "badge--failed", RunStatusBadgeClass("failed"))
	assert.Equal(t, "", RunStatusBadgeClass("anything-else"))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", FormatCell(nil))
	assert.Equal(t, "hello", FormatCell([]byte("hello")))
	assert.Equal(t, "42", FormatCell(int64(42)))
	assert.Equal(t, "3.14", FormatCell(3.14))
	assert.Equal(t, "2017-10-02 10:56:33",
		FormatCell(time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC)))
}

func TestFlash_SetAndPop(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))

	// Set the flash on one request
	setReq := httptest.NewRequest(http.MethodPost, "/pipeline/download", nil)
	setRec := httptest.NewRecorder()
	require.NoError(t, SetFlash(store, setRec, setReq, "warning", "run already in progress"))

	cookies := setRec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Pop it on the next request carrying the session cookie
	popReq := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		popReq.AddCookie(c)
	}
	popRec := httptest.NewRecorder()

	flash := PopFlash(store, popRec, popReq)
	require.NotNil(t, flash)
	assert.Equal(t, "warning", flash.Kind)
	assert.Equal(t, "run already in progress", flash.Message)
}

func TestPopFlash_Empty(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	assert.Nil(t, PopFlash(store, rec, req))
}
