package httpapi

import (
	"errors"
	"io"
	"net/http"

	"cognify-data/internal/domain"
	"cognify-data/internal/session"

	"go.uber.org/zap"
)

// maxAudioBytes 单次上传音频上限
const maxAudioBytes = 32 << 20

// SessionHandler 游戏会话 Handler
type SessionHandler struct {
	recorder *session.Recorder
	logger   *zap.Logger
}

// NewSessionHandler 创建会话 Handler
func NewSessionHandler(recorder *session.Recorder, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{recorder: recorder, logger: logger}
}

// Dispatch sessions/{game}/{action} 分发
func (h *SessionHandler) Dispatch(w http.ResponseWriter, r *http.Request, gameName, action string) {
	game, err := domain.ParseGameType(gameName)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("unknown game: "+gameName))
		return
	}
	switch action {
	case "start":
		h.Start(w, r, game)
	case "hint":
		h.Hint(w, r, game)
	case "recall":
		h.SubmitRecall(w, r, game)
	case "speech":
		h.SubmitSpeech(w, r, game)
	case "gaze":
		h.SubmitGaze(w, r, game)
	case "submit":
		// 按游戏选择提交形态
		switch {
		case game == domain.GameMemoryVault:
			h.SubmitRecall(w, r, game)
		case game == domain.GameNaturesGaze:
			h.SubmitGaze(w, r, game)
		default:
			h.SubmitSpeech(w, r, game)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type startRequest struct {
	UserID string `json:"userId"`
}

// Start POST /sessions/{game}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request, game domain.GameType) {
	var req startRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusOK, Fail("userId is required"))
		return
	}
	resp, err := h.recorder.Start(r.Context(), req.UserID, game)
	if err != nil {
		h.writeSessionError(w, req.UserID, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type hintRequest struct {
	UserID string `json:"userId"`
	Field  string `json:"field"`
}

// Hint POST /sessions/memoryVault/hint
func (h *SessionHandler) Hint(w http.ResponseWriter, r *http.Request, game domain.GameType) {
	if game != domain.GameMemoryVault {
		writeJSON(w, http.StatusOK, Fail("hints are only available for memoryVault"))
		return
	}
	var req hintRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusOK, Fail("userId is required"))
		return
	}
	resp, err := h.recorder.Hint(r.Context(), req.UserID, req.Field)
	if err != nil {
		h.writeSessionError(w, req.UserID, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type recallRequest struct {
	UserID  string `json:"userId"`
	Word    string `json:"word"`
	Audio   string `json:"audio"`
	Picture string `json:"picture"`
}

// SubmitRecall POST /sessions/memoryVault/recall
func (h *SessionHandler) SubmitRecall(w http.ResponseWriter, r *http.Request, game domain.GameType) {
	if game != domain.GameMemoryVault {
		writeJSON(w, http.StatusOK, Fail("recall submission is only available for memoryVault"))
		return
	}
	var req recallRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusOK, Fail("userId is required"))
		return
	}
	result, err := h.recorder.SubmitRecall(r.Context(), req.UserID, domain.RecallInputs{
		Word:    req.Word,
		Audio:   req.Audio,
		Picture: req.Picture,
	})
	if err != nil {
		h.writeSessionError(w, req.UserID, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// SubmitSpeech POST /sessions/{game}/speech
// multipart/form-data: userId + audio 文件。audio 缺失视为空录音提交。
func (h *SessionHandler) SubmitSpeech(w http.ResponseWriter, r *http.Request, game domain.GameType) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid multipart body"))
		return
	}
	userID := r.FormValue("userId")
	if userID == "" {
		writeJSON(w, http.StatusOK, Fail("userId is required"))
		return
	}

	var audio []byte
	if file, _, err := r.FormFile("audio"); err == nil {
		defer file.Close()
		audio, err = io.ReadAll(io.LimitReader(file, maxAudioBytes))
		if err != nil {
			writeJSON(w, http.StatusOK, Fail("failed to read audio"))
			return
		}
	}

	result, err := h.recorder.SubmitSpeech(r.Context(), userID, game, audio)
	if err != nil {
		h.writeSessionError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

type gazeRequest struct {
	UserID string `json:"userId"`
	session.GazeMetrics
}

// SubmitGaze POST /sessions/naturesGaze/gaze
func (h *SessionHandler) SubmitGaze(w http.ResponseWriter, r *http.Request, game domain.GameType) {
	if game != domain.GameNaturesGaze {
		writeJSON(w, http.StatusOK, Fail("gaze submission is only available for naturesGaze"))
		return
	}
	var req gazeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusOK, Fail("userId is required"))
		return
	}
	result, err := h.recorder.SubmitGaze(r.Context(), req.UserID, req.GazeMetrics)
	if err != nil {
		h.writeSessionError(w, req.UserID, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, domain.ErrPatientNotFound):
		writeJSON(w, http.StatusOK, Fail("patient not found"))
	case errors.Is(err, session.ErrNoActiveSession):
		writeJSON(w, http.StatusOK, Fail("no active session"))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	default:
		h.logger.Error("session request failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("session request failed"))
	}
}
