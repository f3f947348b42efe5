package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/app"
	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
)

func testResult() *app.BatchResult {
	return &app.BatchResult{
		RunID: "run-1",
		Model: &risk.TrainedModel{
			Version: "model-1",
			Metrics: risk.EvalMetrics{F2: 0.8, HoldoutSize: 16, Positives: 5},
		},
		Assessments: []risk.Assessment{
			{PersonID: "p1", Status: cohort.StatusOK, Score: 72, Band: risk.BandHigh},
			{PersonID: "p2", Status: cohort.StatusInsufficientData},
		},
		Skipped: 1,
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(NewHandler(testResult()).Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body["run_id"])
}

func TestListAssessments(t *testing.T) {
	server := httptest.NewServer(NewHandler(testResult()).Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/assessments")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []risk.Assessment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, cohort.PersonID("p1"), got[0].PersonID)
}

func TestGetAssessment(t *testing.T) {
	server := httptest.NewServer(NewHandler(testResult()).Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/assessments/p1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got risk.Assessment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 72.0, got.Score)
	assert.Equal(t, risk.BandHigh, got.Band)
}

func TestGetAssessment_NotFound(t *testing.T) {
	server := httptest.NewServer(NewHandler(testResult()).Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/assessments/nobody")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMetrics(t *testing.T) {
	server := httptest.NewServer(NewHandler(testResult()).Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "model-1", body["model_version"])
	assert.Equal(t, 1.0, body["skipped"])
}
