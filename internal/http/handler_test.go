package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpapi "cognify-data/internal/http"

	"cognify-data/internal/docstore"
	"cognify-data/internal/report"
	"cognify-data/internal/repository"
	"cognify-data/internal/scoring"
	"cognify-data/internal/session"
	"cognify-data/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeKV 内存 KV，替代 Redis
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

// exactOracle 完全一致给满分，否则给 1 分
type exactOracle struct{}

func (exactOracle) ComputePoints(_ context.Context, presented, recalled string) (int, error) {
	if strings.EqualFold(presented, recalled) {
		return 4, nil
	}
	return 1, nil
}

func newTestRouter(t *testing.T) *httpapi.Router {
	t.Helper()
	logger := zap.NewNop()
	docs := docstore.NewMemoryStore()
	patients := repository.NewPatientsRepo(docs, logger)

	recorder := session.NewRecorder(
		patients,
		session.NewBuffer(newFakeKV(), time.Hour),
		session.NewFanout(docs, logger),
		session.NewProgress(patients, logger),
		scoring.NewEngine(exactOracle{}, logger),
		nil, // 语音流程不在这些用例里
		nil,
		logger,
	)
	recorder.SetClock(func() time.Time {
		return time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	})

	aggregator := report.NewAggregator(docs, exactOracle{}, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterPatientRoutes(httpapi.NewPatientHandler(patients, logger))
	router.RegisterSessionRoutes(httpapi.NewSessionHandler(recorder, logger))
	router.RegisterReportRoutes(httpapi.NewReportHandler(aggregator, patients, logger))
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func getJSON(t *testing.T, router http.Handler, path string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func enrollPatient(t *testing.T, router http.Handler) string {
	t.Helper()
	envelope := postJSON(t, router, "/cognify/api/v1/patients", map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"dob":       "1950-12-10",
		"sex":       "female",
	})
	require.Equal(t, float64(httpapi.ResultSuccess), envelope["code"])
	result := envelope["result"].(map[string]any)
	id, _ := result["userId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestEnrollAndGetPatient(t *testing.T) {
	router := newTestRouter(t)
	id := enrollPatient(t, router)

	envelope := getJSON(t, router, "/cognify/api/v1/patients/"+id)
	require.Equal(t, float64(httpapi.ResultSuccess), envelope["code"])
	patient := envelope["result"].(map[string]any)
	require.Equal(t, "Ada", patient["firstName"])
	require.Equal(t, "1950-12-10", patient["dob"])
}

func TestGetPatient_NotFound(t *testing.T) {
	router := newTestRouter(t)
	envelope := getJSON(t, router, "/cognify/api/v1/patients/no-such-id")
	require.Equal(t, float64(httpapi.ResultError), envelope["code"])
	require.Equal(t, "patient not found", envelope["message"])
}

func TestEnroll_RejectsBadDOB(t *testing.T) {
	router := newTestRouter(t)
	envelope := postJSON(t, router, "/cognify/api/v1/patients", map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"dob":       "12/10/1950",
	})
	require.Equal(t, float64(httpapi.ResultError), envelope["code"])
}

func TestSessionFlow_MemoryVaultRecall(t *testing.T) {
	router := newTestRouter(t)
	id := enrollPatient(t, router)

	start := postJSON(t, router, "/cognify/api/v1/sessions/memoryVault/start", map[string]any{"userId": id})
	require.Equal(t, float64(httpapi.ResultSuccess), start["code"])
	stimulus := start["result"].(map[string]any)
	require.NotEmpty(t, stimulus["word"])

	hint := postJSON(t, router, "/cognify/api/v1/sessions/memoryVault/hint", map[string]any{
		"userId": id,
		"field":  "word",
	})
	require.Equal(t, float64(httpapi.ResultSuccess), hint["code"])
	require.Equal(t, float64(1), hint["result"].(map[string]any)["hintsUsed"])

	submit := postJSON(t, router, "/cognify/api/v1/sessions/memoryVault/recall", map[string]any{
		"userId":  id,
		"word":    stimulus["word"],
		"audio":   stimulus["audio"],
		"picture": stimulus["picture"],
	})
	require.Equal(t, float64(httpapi.ResultSuccess), submit["code"])
	summary := submit["result"].(map[string]any)["summary"].(map[string]any)
	// word 用过提示，满分 4 扣 1
	require.Equal(t, float64(3), summary["WordScore"])
	require.Equal(t, float64(4), summary["AudioScore"])

	dates := getJSON(t, router, "/cognify/api/v1/reports/"+id+"/dates")
	require.Equal(t, []any{"06-03-2025"}, dates["result"].(map[string]any)["dates"])

	daily := getJSON(t, router, "/cognify/api/v1/reports/"+id+"/daily?date=06-03-2025")
	require.Equal(t, float64(httpapi.ResultSuccess), daily["code"])
	games := daily["result"].(map[string]any)["games"].(map[string]any)
	require.Contains(t, games, "memoryVault")

	progress := getJSON(t, router, "/cognify/api/v1/patients/"+id+"/progress")
	result := progress["result"].(map[string]any)
	require.Equal(t, float64(1), result["playCount"])
	require.Equal(t, []any{"2025-06-03"}, result["completedDays"])
}

func TestSession_UnknownGame(t *testing.T) {
	router := newTestRouter(t)
	envelope := postJSON(t, router, "/cognify/api/v1/sessions/chess/start", map[string]any{"userId": "u1"})
	require.Equal(t, float64(httpapi.ResultError), envelope["code"])
}

func TestSubmitRecall_NoActiveSession(t *testing.T) {
	router := newTestRouter(t)
	id := enrollPatient(t, router)
	envelope := postJSON(t, router, "/cognify/api/v1/sessions/memoryVault/recall", map[string]any{
		"userId": id,
		"word":   "Spoon", "audio": "Rainbow", "picture": "Apple",
	})
	require.Equal(t, float64(httpapi.ResultError), envelope["code"])
	require.Equal(t, "no active session", envelope["message"])
}

func TestSubmitGaze_EndToEnd(t *testing.T) {
	router := newTestRouter(t)
	id := enrollPatient(t, router)

	start := postJSON(t, router, "/cognify/api/v1/sessions/naturesGaze/start", map[string]any{"userId": id})
	require.Equal(t, float64(httpapi.ResultSuccess), start["code"])

	submit := postJSON(t, router, "/cognify/api/v1/sessions/naturesGaze/gaze", map[string]any{
		"userId": id,
		"reactionTime": map[string]float64{
			"antiGap": 250, "proGap": 180, "antiOverlap": 260, "proOverlap": 190,
		},
		"saccadeOmissionPercentages": map[string]float64{"antiGap": 5},
		"saccadeDurations":           map[string]float64{"antiGap": 55},
	})
	require.Equal(t, float64(httpapi.ResultSuccess), submit["code"])
	summary := submit["result"].(map[string]any)["summary"].(map[string]any)
	require.Equal(t, float64(220), summary["AverageReactionTime"])
}

func TestSubmitSpeech_MissingAudioStillAccepted(t *testing.T) {
	router := newTestRouter(t)
	id := enrollPatient(t, router)

	start := postJSON(t, router, "/cognify/api/v1/sessions/processQuest/start", map[string]any{"userId": id})
	require.Equal(t, float64(httpapi.ResultSuccess), start["code"])

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("userId", id))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/cognify/api/v1/sessions/processQuest/speech", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, float64(httpapi.ResultSuccess), envelope["code"])
	summary := envelope["result"].(map[string]any)["summary"].(map[string]any)
	require.Equal(t, "", summary["Transcript"])
}

func TestExport_DownloadsWorkbook(t *testing.T) {
	router := newTestRouter(t)
	id := enrollPatient(t, router)

	start := postJSON(t, router, "/cognify/api/v1/sessions/memoryVault/start", map[string]any{"userId": id})
	stimulus := start["result"].(map[string]any)
	postJSON(t, router, "/cognify/api/v1/sessions/memoryVault/recall", map[string]any{
		"userId":  id,
		"word":    stimulus["word"],
		"audio":   stimulus["audio"],
		"picture": stimulus["picture"],
	})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/cognify/api/v1/reports/%s/export?date=06-03-2025", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())
}
