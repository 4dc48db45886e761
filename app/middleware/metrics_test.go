package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics("/metrics"))
	app.Get("/shipments/:id", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", func(c fiber.Ctx) error {
		return c.SendString("scrape")
	})

	get := func(path string) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/shipments/:id", "200")
	before := testutil.ToFloat64(counter)

	assert.Equal(t, fiber.StatusOK, get("/shipments/1"))
	assert.Equal(t, fiber.StatusOK, get("/shipments/2"))
	assert.Equal(t, before+2, testutil.ToFloat64(counter), "requests are labelled by route template")

	scrape := httpRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	scrapeBefore := testutil.ToFloat64(scrape)
	assert.Equal(t, fiber.StatusOK, get("/metrics"))
	assert.Equal(t, scrapeBefore, testutil.ToFloat64(scrape), "scrape path is not recorded")

	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
}
