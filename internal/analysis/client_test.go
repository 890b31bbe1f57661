package analysis_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cognify-data/internal/analysis"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComputePoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/compute-points", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Spoon", body["presented_word"])
		require.Equal(t, "Spoon", body["recalled_word"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"points": 4})
	}))
	defer srv.Close()

	client := analysis.NewClient(srv.URL, zap.NewNop())
	points, err := client.ComputePoints(context.Background(), "Spoon", "Spoon")
	require.NoError(t, err)
	require.Equal(t, 4, points)
}

func TestComputePoints_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Missing parameters"})
	}))
	defer srv.Close()

	client := analysis.NewClient(srv.URL, zap.NewNop())
	_, err := client.ComputePoints(context.Background(), "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Missing parameters")
}

func TestAnalyzeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze-text", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"wordsPerMinute":        112.4,
			"repetitionRatio":       0.05,
			"sentenceCount":         9,
			"speechDurationSeconds": 83.2,
		})
	}))
	defer srv.Close()

	client := analysis.NewClient(srv.URL, zap.NewNop())
	metrics, err := client.AnalyzeText(context.Background(), "the quick brown fox", nil)
	require.NoError(t, err)
	require.InDelta(t, 112.4, metrics.WordsPerMinute, 1e-9)
	require.Equal(t, 9, metrics.SentenceCount)
}

func TestAnalyzePauses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze-pauses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]float64{
			{"StartTime": 4.25, "EndTime": 5.5},
			{"StartTime": 12.0, "EndTime": 13.75},
		})
	}))
	defer srv.Close()

	client := analysis.NewClient(srv.URL, zap.NewNop())
	pauses, err := client.AnalyzePauses(context.Background(), map[string]any{"results": []any{}})
	require.NoError(t, err)
	require.Len(t, pauses, 2)
	require.InDelta(t, 4.25, pauses[0].StartTime, 1e-9)
	require.InDelta(t, 13.75, pauses[1].EndTime, 1e-9)
}

func TestAnalyzeSemanticContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/semantic-content", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body["word_bank"], 2)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"semanticEfficiency":  0.42,
			"semanticIdeaDensity": 1.7,
			"semanticUnits":       "dog, park",
		})
	}))
	defer srv.Close()

	client := analysis.NewClient(srv.URL, zap.NewNop())
	metrics, err := client.AnalyzeSemanticContent(context.Background(), "a dog in the park", nil, []string{"dog", "park"})
	require.NoError(t, err)
	require.InDelta(t, 0.42, metrics.SemanticEfficiency, 1e-9)
	require.Equal(t, "dog, park", metrics.SemanticUnits)
}
