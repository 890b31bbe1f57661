package transcribe_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cognify-data/internal/transcribe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "processQuest", r.FormValue("game"))
		require.Equal(t, "user-1", r.FormValue("userId"))
		require.Equal(t, "3", r.FormValue("sessionNumber"))
		_, _, err := r.FormFile("audio")
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Transcription started",
			"jobName": "processQuest_user-1_02-01-2025_session3",
		})
	}))
	defer srv.Close()

	client := transcribe.NewClient(srv.URL, time.Millisecond, 3, zap.NewNop())
	job, err := client.Submit(context.Background(), []byte("RIFF...."), "processQuest", "user-1", "02-01-2025", 3)
	require.NoError(t, err)
	require.Equal(t, "processQuest_user-1_02-01-2025_session3", job.Name)
}

func TestWaitForTranscript_ReadyAfterPending(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) < 3 {
			json.NewEncoder(w).Encode(map[string]string{"status": "IN_PROGRESS"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"transcript": "i made a sandwich",
			"audio_segments": []map[string]string{
				{"start_time": "0.0", "end_time": "4.2", "content": "i made a sandwich"},
			},
			"full_transcription": map[string]any{"results": map[string]any{}},
		})
	}))
	defer srv.Close()

	client := transcribe.NewClient(srv.URL, time.Millisecond, 10, zap.NewNop())
	transcript, err := client.WaitForTranscript(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, "i made a sandwich", transcript.Transcript)
	require.Len(t, transcript.Segments, 1)
	require.NotEmpty(t, transcript.Full)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestWaitForTranscript_TimedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "IN_PROGRESS"})
	}))
	defer srv.Close()

	client := transcribe.NewClient(srv.URL, time.Millisecond, 4, zap.NewNop())
	_, err := client.WaitForTranscript(context.Background(), "job-stuck")
	require.ErrorIs(t, err, transcribe.ErrTimedOut)
}

func TestWaitForTranscript_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "IN_PROGRESS"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := transcribe.NewClient(srv.URL, time.Hour, 10, zap.NewNop())
	_, err := client.WaitForTranscript(ctx, "job-1")
	require.ErrorIs(t, err, context.Canceled)
}
