package session

import (
	"context"
	"fmt"

	"cognify-data/internal/docstore"
	"cognify-data/internal/domain"

	"go.uber.org/zap"
)

// Fanout 把一个 SessionResult 写入三棵文档树。
// 三个 sink 互相独立：任何一路失败只记日志，不回滚也不阻断其余两路。
type Fanout struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewFanout 创建 fan-out 写入器
func NewFanout(store docstore.Store, logger *zap.Logger) *Fanout {
	return &Fanout{store: store, logger: logger}
}

func dailySummaryPath(userID, date string, game domain.GameType) string {
	return fmt.Sprintf("users/%s/dailyReports/%s/games/%s", userID, date, game)
}

func breakdownPath(userID, date string, game domain.GameType, category string) string {
	return fmt.Sprintf("users/%s/dailyReportsSeeMore/%s/%s/%s", userID, date, game, category)
}

func allTimePath(userID, date string, game domain.GameType) string {
	return fmt.Sprintf("users/%s/allTimeReports/%s/games/%s", userID, date, game)
}

// Persist 依次尝试日报、详细报告、长期快照三路写入
func (f *Fanout) Persist(ctx context.Context, result *domain.SessionResult) {
	f.writeDailySummary(ctx, result)
	f.writeBreakdown(ctx, result)
	f.writeAllTime(ctx, result)
}

func (f *Fanout) writeDailySummary(ctx context.Context, result *domain.SessionResult) {
	// 文档库不保证隐式建父，先预建日期文档
	ancestor := fmt.Sprintf("users/%s/dailyReports/%s", result.PatientID, result.DateKey)
	if err := f.store.EnsureDocument(ctx, ancestor); err != nil {
		f.logSinkError("daily summary ancestor", ancestor, result, err)
	}
	path := dailySummaryPath(result.PatientID, result.DateKey, result.Game)
	if err := f.store.SetDocument(ctx, path, result.Summary); err != nil {
		f.logSinkError("daily summary", path, result, err)
		return
	}
	f.logger.Debug("daily summary written", zap.String("path", path))
}

func (f *Fanout) writeBreakdown(ctx context.Context, result *domain.SessionResult) {
	ancestor := fmt.Sprintf("users/%s/dailyReportsSeeMore/%s", result.PatientID, result.DateKey)
	if err := f.store.EnsureDocument(ctx, ancestor); err != nil {
		f.logSinkError("breakdown ancestor", ancestor, result, err)
	}

	for category, metrics := range result.Breakdown {
		path := breakdownPath(result.PatientID, result.DateKey, result.Game, category)
		if err := f.store.SetDocument(ctx, path, metrics); err != nil {
			f.logSinkError("breakdown", path, result, err)
		}
	}

	// 停顿与口吃按序号落在固定子集合下，序号从 1 起
	for i, pause := range result.Pauses {
		path := fmt.Sprintf("%s/Pauses/%d",
			breakdownPath(result.PatientID, result.DateKey, result.Game, domain.CategoryTemporal), i+1)
		doc := map[string]any{"StartTime": pause.StartTime, "EndTime": pause.EndTime}
		if err := f.store.SetDocument(ctx, path, doc); err != nil {
			f.logSinkError("pause", path, result, err)
		}
	}
	for rel, doc := range result.Subdocs {
		path := fmt.Sprintf("users/%s/dailyReportsSeeMore/%s/%s/%s",
			result.PatientID, result.DateKey, result.Game, rel)
		if err := f.store.SetDocument(ctx, path, doc); err != nil {
			f.logSinkError("subdoc", path, result, err)
		}
	}
	for i, stutter := range result.Stutters {
		path := fmt.Sprintf("%s/Stutters/%d",
			breakdownPath(result.PatientID, result.DateKey, result.Game, domain.CategoryFluency), i+1)
		doc := map[string]any{"StartTime": stutter.StartTime, "EndTime": stutter.EndTime}
		if err := f.store.SetDocument(ctx, path, doc); err != nil {
			f.logSinkError("stutter", path, result, err)
		}
	}
}

func (f *Fanout) writeAllTime(ctx context.Context, result *domain.SessionResult) {
	ancestor := fmt.Sprintf("users/%s/allTimeReports/%s", result.PatientID, result.DateKey)
	if err := f.store.EnsureDocument(ctx, ancestor); err != nil {
		f.logSinkError("all-time ancestor", ancestor, result, err)
	}
	path := allTimePath(result.PatientID, result.DateKey, result.Game)
	if err := f.store.SetDocument(ctx, path, result.Summary); err != nil {
		f.logSinkError("all-time snapshot", path, result, err)
	}
}

func (f *Fanout) logSinkError(sink, path string, result *domain.SessionResult, err error) {
	f.logger.Error("fan-out write failed",
		zap.String("sink", sink),
		zap.String("path", path),
		zap.String("user_id", result.PatientID),
		zap.String("game", string(result.Game)),
		zap.Error(err))
}
