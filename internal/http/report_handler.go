package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"cognify-data/internal/domain"
	"cognify-data/internal/report"
	"cognify-data/internal/repository"

	"go.uber.org/zap"
)

// ReportHandler 报告 Handler
type ReportHandler struct {
	aggregator *report.Aggregator
	patients   *repository.PatientsRepo
	logger     *zap.Logger
}

// NewReportHandler 创建报告 Handler
func NewReportHandler(aggregator *report.Aggregator, patients *repository.PatientsRepo, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{aggregator: aggregator, patients: patients, logger: logger}
}

// Dispatch reports/{id}/{view} 分发
func (h *ReportHandler) Dispatch(w http.ResponseWriter, r *http.Request, patientID, view string) {
	switch view {
	case "dates":
		h.Dates(w, r, patientID)
	case "weeks":
		h.Weeks(w, r, patientID)
	case "daily":
		h.Daily(w, r, patientID)
	case "weekly":
		h.Weekly(w, r, patientID)
	case "all-time":
		h.AllTime(w, r, patientID)
	case "export":
		h.Export(w, r, patientID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Dates GET /reports/{id}/dates
func (h *ReportHandler) Dates(w http.ResponseWriter, r *http.Request, patientID string) {
	keys, err := h.aggregator.Dates(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list report dates failed", zap.String("user_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list report dates"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"dates": keys}))
}

// Weeks GET /reports/{id}/weeks
func (h *ReportHandler) Weeks(w http.ResponseWriter, r *http.Request, patientID string) {
	weeks, err := h.aggregator.Weeks(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list report weeks failed", zap.String("user_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list report weeks"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"weeks": weeks}))
}

// Daily GET /reports/{id}/daily?date=MM-DD-YYYY
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request, patientID string) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusOK, Fail("date is required"))
		return
	}
	daily, err := h.aggregator.Daily(r.Context(), patientID, date)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to build daily report: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(daily))
}

// Weekly GET /reports/{id}/weekly?week=...&game=...
func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request, patientID string) {
	week := r.URL.Query().Get("week")
	game, err := domain.ParseGameType(r.URL.Query().Get("game"))
	if week == "" || err != nil {
		writeJSON(w, http.StatusOK, Fail("week and game are required"))
		return
	}
	weekly, err := h.aggregator.Weekly(r.Context(), patientID, week, game)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		h.logger.Error("weekly report failed", zap.String("user_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to build weekly report"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(weekly))
}

// AllTime GET /reports/{id}/all-time?game=...
func (h *ReportHandler) AllTime(w http.ResponseWriter, r *http.Request, patientID string) {
	game, err := domain.ParseGameType(r.URL.Query().Get("game"))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("game is required"))
		return
	}
	charts, err := h.aggregator.AllTime(r.Context(), patientID, game)
	if err != nil {
		h.logger.Error("all-time report failed", zap.String("user_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to build all-time report"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"charts": charts}))
}

// Export GET /reports/{id}/export?date=MM-DD-YYYY 下载日报 Excel；
// GET /reports/{id}/export?game=... 下载该游戏的长期趋势 Excel
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request, patientID string) {
	if gameName := r.URL.Query().Get("game"); gameName != "" {
		h.exportAllTime(w, r, patientID, gameName)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusOK, Fail("date or game is required"))
		return
	}
	patient, err := h.patients.Get(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			writeJSON(w, http.StatusOK, Fail("patient not found"))
			return
		}
		h.logger.Error("load patient failed", zap.String("user_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load patient"))
		return
	}
	daily, err := h.aggregator.Daily(r.Context(), patientID, date)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to build daily report: %v", err)))
		return
	}
	excelData, err := report.GenerateDailyExport(patient, daily)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=daily-report-%s.xlsx", date))
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}

func (h *ReportHandler) exportAllTime(w http.ResponseWriter, r *http.Request, patientID, gameName string) {
	game, err := domain.ParseGameType(gameName)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("unknown game: "+gameName))
		return
	}
	charts, err := h.aggregator.AllTime(r.Context(), patientID, game)
	if err != nil {
		h.logger.Error("all-time report failed", zap.String("user_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to build all-time report"))
		return
	}
	excelData, err := report.GenerateAllTimeExport(charts)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=all-time-%s.xlsx", game))
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}
