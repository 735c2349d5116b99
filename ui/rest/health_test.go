package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzielCF/az-posts/domains/health"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	records []health.HealthRecord
}

func (f fakeHealth) GetStatus(ctx context.Context) ([]health.HealthRecord, error) {
	return f.records, nil
}

func TestHealthHandler_Status(t *testing.T) {
	tests := []struct {
		name   string
		status health.Status
		want   int
	}{
		{name: "healthy", status: health.StatusOk, want: http.StatusOK},
		{name: "degraded", status: health.StatusError, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			InitRestHealth(app.Group("/api"), fakeHealth{records: []health.HealthRecord{
				{EntityType: health.EntityDatabase, Status: tt.status},
				{EntityType: health.EntityValkey, Status: health.StatusDisabled},
			}})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health/status", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
