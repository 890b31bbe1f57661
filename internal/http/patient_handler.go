package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cognify-data/internal/dates"
	"cognify-data/internal/domain"
	"cognify-data/internal/repository"

	"go.uber.org/zap"
)

// PatientHandler 病人档案 Handler
type PatientHandler struct {
	patients *repository.PatientsRepo
	logger   *zap.Logger
	now      func() time.Time
}

// NewPatientHandler 创建病人档案 Handler
func NewPatientHandler(patients *repository.PatientsRepo, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{patients: patients, logger: logger, now: time.Now}
}

type enrollRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	DOB       string `json:"dob"`
	Sex       string `json:"sex"`
}

// Enroll POST /patients
func (h *PatientHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		writeJSON(w, http.StatusOK, Fail("firstName and lastName are required"))
		return
	}
	if _, err := dates.ParseISO(req.DOB); err != nil {
		writeJSON(w, http.StatusOK, Fail("dob must be YYYY-MM-DD"))
		return
	}

	patient, err := h.patients.Enroll(r.Context(), req.FirstName, req.LastName, req.DOB, domain.Sex(req.Sex), h.now())
	if err != nil {
		h.logger.Error("enroll failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to enroll patient"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"userId":        patient.ID,
		"enrolmentDate": patient.EnrolmentDate,
	}))
}

// Get GET /patients/{id}
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	patient, err := h.patients.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			writeJSON(w, http.StatusOK, Fail("patient not found"))
			return
		}
		h.logger.Error("load patient failed", zap.String("user_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load patient"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(patient))
}

// Progress GET /patients/{id}/progress
// 返回进度 + 监测周期冷却状态
func (h *PatientHandler) Progress(w http.ResponseWriter, r *http.Request, id string) {
	patient, err := h.patients.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			writeJSON(w, http.StatusOK, Fail("patient not found"))
			return
		}
		h.logger.Error("load patient failed", zap.String("user_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load patient"))
		return
	}

	daysRemaining := domain.RequiredCycleDays - len(patient.CompletedDays)
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	resp := map[string]any{
		"playCount":        patient.PlayCount,
		"completedDays":    patient.CompletedDays,
		"numCompletedDays": len(patient.CompletedDays),
		"currentStreak":    patient.CurrentStreak,
		"cycleComplete":    patient.CycleComplete(),
		"daysRemaining":    daysRemaining,
	}
	if patient.FirstPlayed != "" {
		cooldown, err := dates.CooldownWindow(patient.FirstPlayed, patient.PlayFrequencyMonths(), len(patient.CompletedDays), h.now())
		if err == nil {
			resp["cooldownActive"] = cooldown.Active
			resp["nextCycleStart"] = dates.ISODate(cooldown.NextStart)
		}
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
