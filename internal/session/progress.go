package session

import (
	"context"
	"fmt"
	"time"

	"cognify-data/internal/dates"
	"cognify-data/internal/domain"
	"cognify-data/internal/repository"

	"go.uber.org/zap"
)

// Progress 病人进度更新：完成日集合、连续天数、playCount。
type Progress struct {
	patients *repository.PatientsRepo
	logger   *zap.Logger
}

// NewProgress 创建进度更新器
func NewProgress(patients *repository.PatientsRepo, logger *zap.Logger) *Progress {
	return &Progress{patients: patients, logger: logger}
}

// MarkCompleted 会话落库后推进进度。completedDays 为集合语义，
// 同日重复提交不重复计数；numCompletedDays 由集合长度推导。
func (p *Progress) MarkCompleted(ctx context.Context, patient *domain.Patient, now time.Time) error {
	today := dates.ISODate(now)

	patient.CurrentStreak = dates.NextStreak(patient.LastPlayed, today, patient.CurrentStreak)
	patient.AddCompletedDay(today)
	patient.PlayCount++
	patient.LastPlayed = today
	if patient.FirstPlayed == "" {
		patient.FirstPlayed = today
	}

	if err := p.patients.Save(ctx, patient); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	p.logger.Info("patient progress updated",
		zap.String("user_id", patient.ID),
		zap.Int("play_count", patient.PlayCount),
		zap.Int("streak", patient.CurrentStreak),
		zap.Int("completed_days", len(patient.CompletedDays)))
	return nil
}
