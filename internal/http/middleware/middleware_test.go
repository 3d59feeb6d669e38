package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"worry_solver/internal/http/dto"
	"worry_solver/internal/http/resp"
	"worry_solver/internal/metrics"
)

func TestZapLoggerLogsRouteNotPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(ZapLogger(zap.New(core)))
	router.GET("/worries/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/worries/TSZT-VVSM-8F8Y", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/worries/:code", fields["route"])
	require.NotContains(t, fields, "path")
	require.NotContains(t, fields, "client_ip")
}

func TestZapLoggerWarnsOnClientErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(ZapLogger(zap.New(core)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	require.Equal(t, zap.WarnLevel, entries[0].Level)
	require.Equal(t, "unmatched", entries[0].ContextMap()["route"])
}

func TestZapRecoveryRespondsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.ErrorLevel)

	router := gin.New()
	router.Use(ZapRecovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, resp.CodeInternalError, body.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestMetricsObservesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()

	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/worries/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, code := range []string{"TSZT-VVSM-8F8Y", "AAAA-BBBB-CCCC"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/worries/"+code, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}
