package server_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ringsight/ringsight/internal/detection"
	"github.com/ringsight/ringsight/internal/server"
	"github.com/ringsight/ringsight/pkg/models"
)

const cycleBody = `{
  "transactions": [
    {"transaction_id": "T1", "sender_id": "A", "receiver_id": "B", "amount": 5000, "timestamp": "2024-03-01T00:00:00Z"},
    {"transaction_id": "T2", "sender_id": "B", "receiver_id": "C", "amount": 4900, "timestamp": "2024-03-01T00:05:00Z"},
    {"transaction_id": "T3", "sender_id": "C", "receiver_id": "A", "amount": 4800, "timestamp": "2024-03-01T00:10:00Z"}
  ]
}`

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	svc := detection.NewService(detection.DefaultConfig(), logger.Sugar())
	pool := detection.NewPool(svc, 2, logger.Sugar())
	return server.NewServer(logger, pool).Router()
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestAnalyzeCycleBatch(t *testing.T) {
	router := setupRouter(t)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(cycleBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	require.Len(t, result.FraudRings, 1)
	assert.Equal(t, "RING_001", result.FraudRings[0].RingID)
	assert.Equal(t, models.PatternCycle, result.FraudRings[0].PatternType)
	assert.Equal(t, 85.0, result.FraudRings[0].RiskScore)
	assert.Len(t, result.SuspiciousAccounts, 3)
}

func TestAnalyzeRejectsMalformedJSON(t *testing.T) {
	router := setupRouter(t)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"transactions": [`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeRejectsMissingField(t *testing.T) {
	router := setupRouter(t)
	body := `{"transactions": [{"transaction_id": "T1", "receiver_id": "B", "amount": 10, "timestamp": "2024-03-01T00:00:00Z"}]}`
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeRejectsMalformedTimestamp(t *testing.T) {
	router := setupRouter(t)
	body := `{"transactions": [{"transaction_id": "T1", "sender_id": "A", "receiver_id": "B", "amount": 10, "timestamp": "tuesday"}]}`
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "timestamp")
}

func TestAnalyzeCSVUpload(t *testing.T) {
	router := setupRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "batch.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(
		"transaction_id,sender_id,receiver_id,amount,timestamp\n" +
			"T1,A,B,5000,2024-03-01T00:00:00Z\n" +
			"T2,B,C,4900,2024-03-01T00:05:00Z\n" +
			"T3,C,A,4800,2024-03-01T00:10:00Z\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.FraudRings, 1)
}

func TestAnalyzeCSVMissingColumn(t *testing.T) {
	router := setupRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "batch.csv")
	fw.Write([]byte("transaction_id,sender_id,amount,timestamp\nT1,A,10,2024-03-01T00:00:00Z\n"))
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "receiver_id")
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ringsight_")
}
