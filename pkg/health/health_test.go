package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name         string
		storeCheck   Check
		cacheCheck   Check
		want         Status
		wantHTTPCode int
	}{
		{"all up", ok, ok, StatusUp, http.StatusOK},
		{"optional cache down", ok, failing, StatusDegraded, http.StatusOK},
		{"store down", failing, ok, StatusDown, http.StatusServiceUnavailable},
		{"both down", failing, failing, StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			c.Register("store", true, tt.storeCheck)
			c.Register("redis", false, tt.cacheCheck)

			report := c.Run(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Components, 2)

			rec := httptest.NewRecorder()
			c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
			assert.Equal(t, tt.wantHTTPCode, rec.Code)

			var decoded Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
			assert.Equal(t, tt.want, decoded.Status)
		})
	}
}

func TestFailureMessage(t *testing.T) {
	c := NewChecker()
	c.Register("redis", false, failing)
	report := c.Run(context.Background())
	assert.Equal(t, "connection refused", report.Components["redis"].Message)
	assert.Equal(t, StatusDegraded, report.Components["redis"].Status)
}
