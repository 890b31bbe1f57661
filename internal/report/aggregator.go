// Package report 报告聚合：读回 fan-out 文档树，按日/周/月分桶，产出图表输入。
// 聚合器无状态，所选日期/游戏/周全部由调用方传参。
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"cognify-data/internal/dates"
	"cognify-data/internal/docstore"
	"cognify-data/internal/domain"
	"cognify-data/internal/scoring"
	"cognify-data/internal/store"

	"go.uber.org/zap"
)

// saccadeSeriesLabels 眼动任务系列的图例名
var saccadeSeriesLabels = map[string]string{
	"antiGap":     "Anti-Saccade, Gap Task",
	"proGap":      "Pro-Saccade, Gap Task",
	"antiOverlap": "Anti-Saccade, Overlap Task",
	"proOverlap":  "Pro-Saccade, Overlap Task",
}

var fixationSeriesLabels = map[string]string{
	"gap":     "Gap Task",
	"overlap": "Overlap Task",
}

// DateRange 闭区间日期过滤
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Aggregator 报告聚合器
type Aggregator struct {
	store    docstore.Store
	oracle   scoring.Oracle
	logger   *zap.Logger
	cache    store.KV
	cacheTTL time.Duration
}

// NewAggregator 创建聚合器。oracle 用于周报/长期视图重算回忆得分。
func NewAggregator(docs docstore.Store, oracle scoring.Oracle, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: docs, oracle: oracle, logger: logger}
}

// WithCache 启用日报缓存。TTL 取短（分钟级）：当天会话落库后最多延迟一个
// TTL 才反映到报告页。
func (a *Aggregator) WithCache(kv store.KV, ttl time.Duration) *Aggregator {
	a.cache = kv
	if ttl <= 0 {
		ttl = time.Minute
	}
	a.cacheTTL = ttl
	return a
}

// Dates 日报可选日期键，倒序（最新在前）
func (a *Aggregator) Dates(ctx context.Context, patientID string) ([]string, error) {
	entries, err := a.store.ListCollection(ctx, fmt.Sprintf("users/%s/dailyReports", patientID))
	if err != nil {
		return nil, fmt.Errorf("list report dates: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.ID)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// Weeks 详细报告日期的周分组（非法日期键跳过并告警，不中断）
func (a *Aggregator) Weeks(ctx context.Context, patientID string) ([]dates.WeekGroup, error) {
	entries, err := a.store.ListCollection(ctx, fmt.Sprintf("users/%s/dailyReportsSeeMore", patientID))
	if err != nil {
		return nil, fmt.Errorf("list breakdown dates: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if _, err := dates.ParseKey(e.ID); err != nil {
			a.logger.Warn("skipping malformed date key",
				zap.String("user_id", patientID),
				zap.String("date_key", e.ID))
			continue
		}
		keys = append(keys, e.ID)
	}
	return dates.WeekGroups(keys)
}

// DailyGame 单个游戏的日报指标 + 环比
type DailyGame struct {
	Metrics map[string]any      `json:"metrics"`
	Changes map[string]*float64 `json:"changes,omitempty"`
}

// DailyReport 日报视图
type DailyReport struct {
	Date  string               `json:"date"`
	Label string               `json:"label"`
	Games map[string]DailyGame `json:"games"`
}

// Daily 某日四个游戏的紧凑指标，与上一可用日期逐指标环比。
// memoryVault 只展示 Presented/Recalled 两项。
func (a *Aggregator) Daily(ctx context.Context, patientID, date string) (*DailyReport, error) {
	label, err := dates.FormatDateLabel(date)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("report:daily:%s:%s", patientID, date)
	if a.cache != nil {
		if raw, err := a.cache.Get(ctx, cacheKey); err == nil {
			var cached DailyReport
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	games, err := a.loadGames(ctx, patientID, date)
	if err != nil {
		return nil, err
	}

	// 日报存在但详细报告缺失只是数据质量问题，不阻断视图
	breakdown, err := a.store.GetDocument(ctx, fmt.Sprintf("users/%s/dailyReportsSeeMore/%s", patientID, date))
	if err == nil && !breakdown.Exists && len(games) > 0 {
		a.logger.Warn("daily summary present without breakdown",
			zap.String("user_id", patientID),
			zap.String("date", date))
	}

	var previous map[string]map[string]any
	if prevDate, ok := a.previousDate(ctx, patientID, date); ok {
		previous, _ = a.loadGames(ctx, patientID, prevDate)
	}

	report := &DailyReport{Date: date, Label: label, Games: make(map[string]DailyGame, len(games))}
	for game, metrics := range games {
		if game == string(domain.GameMemoryVault) {
			filtered := map[string]any{}
			for _, k := range []string{"Presented", "Recalled"} {
				if v, ok := metrics[k]; ok {
					filtered[k] = v
				}
			}
			metrics = filtered
		}

		changes := map[string]*float64{}
		for metric, value := range metrics {
			cur, ok := asNumber(value)
			if !ok {
				continue
			}
			prevValue, ok := previous[game][metric]
			if !ok {
				continue
			}
			prev, ok := asNumber(prevValue)
			if !ok {
				continue
			}
			changes[metric] = PercentChange(cur, prev)
		}
		report.Games[game] = DailyGame{Metrics: metrics, Changes: changes}
	}

	if a.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			if err := a.cache.Set(ctx, cacheKey, string(raw), a.cacheTTL); err != nil {
				a.logger.Debug("daily report cache write failed", zap.Error(err))
			}
		}
	}
	return report, nil
}

func (a *Aggregator) loadGames(ctx context.Context, patientID, date string) (map[string]map[string]any, error) {
	entries, err := a.store.ListCollection(ctx, fmt.Sprintf("users/%s/dailyReports/%s/games", patientID, date))
	if err != nil {
		return nil, fmt.Errorf("list games for %s: %w", date, err)
	}
	games := make(map[string]map[string]any, len(entries))
	for _, e := range entries {
		games[e.ID] = e.Data
	}
	return games, nil
}

func (a *Aggregator) previousDate(ctx context.Context, patientID, date string) (string, bool) {
	keys, err := a.Dates(ctx, patientID)
	if err != nil {
		return "", false
	}
	for i, k := range keys {
		if k == date && i+1 < len(keys) {
			return keys[i+1], true
		}
	}
	return "", false
}

// BucketByDate 过滤指定范围内的详细报告文档并把某一指标的数值观测
// 归到短日期标签桶下
func (a *Aggregator) BucketByDate(ctx context.Context, patientID string, game domain.GameType, category, metric string, ranges []DateRange) (MetricBucket, error) {
	entries, err := a.store.ListCollection(ctx, fmt.Sprintf("users/%s/dailyReportsSeeMore", patientID))
	if err != nil {
		return nil, fmt.Errorf("list breakdown dates: %w", err)
	}

	bucket := MetricBucket{}
	for _, e := range entries {
		day, err := dates.ParseKey(e.ID)
		if err != nil {
			continue
		}
		inRange := len(ranges) == 0
		for _, r := range ranges {
			if r.contains(day) {
				inRange = true
				break
			}
		}
		if !inRange {
			continue
		}

		path := fmt.Sprintf("users/%s/dailyReportsSeeMore/%s/%s/%s", patientID, e.ID, game, category)
		snap, err := a.store.GetDocument(ctx, path)
		if err != nil || !snap.Exists {
			continue
		}
		if v, ok := asNumber(snap.Data[metric]); ok {
			label := dates.ShortLabel(day)
			bucket[label] = append(bucket[label], v)
		}
	}
	return bucket, nil
}

// WeeklyReport 某周某游戏的全部图表输入，键为图表标题
type WeeklyReport struct {
	Week   dates.WeekGroup       `json:"week"`
	Game   domain.GameType       `json:"game"`
	Charts map[string]ChartInput `json:"charts"`
}

// Weekly 按周标签聚合一个游戏的图表数据
func (a *Aggregator) Weekly(ctx context.Context, patientID, weekLabel string, game domain.GameType) (*WeeklyReport, error) {
	weeks, err := a.Weeks(ctx, patientID)
	if err != nil {
		return nil, err
	}
	var week *dates.WeekGroup
	for i := range weeks {
		if weeks[i].Label == weekLabel {
			week = &weeks[i]
			break
		}
	}
	if week == nil {
		return nil, fmt.Errorf("%w: unknown week %q", domain.ErrValidation, weekLabel)
	}

	charts, err := a.chartsFor(ctx, patientID, game, week.Dates, shortLabeler)
	if err != nil {
		return nil, err
	}
	return &WeeklyReport{Week: *week, Game: game, Charts: charts}, nil
}

// AllTime 长期趋势：全部日期按月份标签分桶
func (a *Aggregator) AllTime(ctx context.Context, patientID string, game domain.GameType) (map[string]ChartInput, error) {
	entries, err := a.store.ListCollection(ctx, fmt.Sprintf("users/%s/dailyReportsSeeMore", patientID))
	if err != nil {
		return nil, fmt.Errorf("list breakdown dates: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if _, err := dates.ParseKey(e.ID); err == nil {
			keys = append(keys, e.ID)
		}
	}
	return a.chartsFor(ctx, patientID, game, keys, monthLabeler)
}

func shortLabeler(t time.Time) string { return dates.ShortLabel(t) }
func monthLabeler(t time.Time) string { return dates.MonthYearLabel(t) }

// chartsFor 单个游戏在一组日期上的图表提取。缺失文档直接跳过（部分数据优先于报错）。
func (a *Aggregator) chartsFor(ctx context.Context, patientID string, game domain.GameType, dateKeys []string, labeler func(time.Time) string) (map[string]ChartInput, error) {
	switch game {
	case domain.GameMemoryVault:
		return a.recallCharts(ctx, patientID, dateKeys, labeler)
	case domain.GameNaturesGaze:
		return a.gazeCharts(ctx, patientID, dateKeys, labeler)
	case domain.GameProcessQuest, domain.GameSceneDetective:
		return a.speechCharts(ctx, patientID, game, dateKeys, labeler)
	}
	return nil, fmt.Errorf("%w: unknown game %q", domain.ErrValidation, game)
}

// recallCharts memoryVault 回忆得分：从存档的 Presented/Recalled 原文
// 逐词重算相似度得分
func (a *Aggregator) recallCharts(ctx context.Context, patientID string, dateKeys []string, labeler func(time.Time) string) (map[string]ChartInput, error) {
	bucket := MetricBucket{}
	for _, key := range dateKeys {
		day, err := dates.ParseKey(key)
		if err != nil {
			continue
		}
		path := fmt.Sprintf("users/%s/dailyReportsSeeMore/%s/memoryVault/%s", patientID, key, domain.CategoryRecall)
		snap, err := a.store.GetDocument(ctx, path)
		if err != nil || !snap.Exists {
			continue
		}
		presented, _ := snap.Data["Presented"].(string)
		recalled, _ := snap.Data["Recalled"].(string)
		points := a.recallPoints(ctx, presented, recalled)
		if len(points) > 0 {
			label := labeler(day)
			bucket[label] = append(bucket[label], points...)
		}
	}
	return map[string]ChartInput{"Recall Score": NewFlat(bucket)}, nil
}

func (a *Aggregator) recallPoints(ctx context.Context, presented, recalled string) []float64 {
	presentedWords := splitWords(presented)
	recalledWords := splitWords(recalled)
	n := len(presentedWords)
	if len(recalledWords) < n {
		n = len(recalledWords)
	}
	var points []float64
	for i := 0; i < n; i++ {
		p, err := a.oracle.ComputePoints(ctx, presentedWords[i], recalledWords[i])
		if err != nil {
			a.logger.Warn("recall rescore failed", zap.Error(err))
			continue
		}
		points = append(points, float64(p))
	}
	return points
}

func splitWords(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// speechCharts 语音类游戏的周/长期图表
func (a *Aggregator) speechCharts(ctx context.Context, patientID string, game domain.GameType, dateKeys []string, labeler func(time.Time) string) (map[string]ChartInput, error) {
	speaking := MetricBucket{}
	pauseCount := MetricBucket{}
	pauseDuration := MetricBucket{}
	stutterCount := MetricBucket{}
	fluency := map[string]MetricBucket{"RepetitionRatio": {}, "WordsPerMin": {}}
	lexical := map[string]MetricBucket{"ClosedClass": {}, "Filler": {}, "Noun": {}, "OpenClass": {}, "Verb": {}}
	structural := map[string]MetricBucket{"MeanLengthOfOccurrence": {}, "NumOfSentences": {}}
	semantic := map[string]MetricBucket{"LexicalFrequencyOfNouns": {}}
	if game == domain.GameSceneDetective {
		semantic["SemanticEfficiency"] = MetricBucket{}
		semantic["SemanticIdeaDensity"] = MetricBucket{}
	}

	for _, key := range dateKeys {
		day, err := dates.ParseKey(key)
		if err != nil {
			continue
		}
		label := labeler(day)
		base := fmt.Sprintf("users/%s/dailyReportsSeeMore/%s/%s", patientID, key, game)

		a.collect(ctx, base+"/"+domain.CategoryTemporal, label, map[string]MetricBucket{"SpeakingTime": speaking})
		a.collect(ctx, base+"/"+domain.CategoryFluency, label, fluency)
		a.collect(ctx, base+"/"+domain.CategoryLexical, label, lexical)
		a.collect(ctx, base+"/"+domain.CategoryStructural, label, structural)
		a.collect(ctx, base+"/"+domain.CategorySemantic, label, semantic)

		if count, total, ok := a.intervals(ctx, base+"/"+domain.CategoryTemporal+"/Pauses"); ok {
			pauseCount[label] = append(pauseCount[label], float64(count))
			pauseDuration[label] = append(pauseDuration[label], total)
		}
		if count, _, ok := a.intervals(ctx, base+"/"+domain.CategoryFluency+"/Stutters"); ok {
			stutterCount[label] = append(stutterCount[label], float64(count))
		}
	}

	return map[string]ChartInput{
		"Speaking Time":       NewFlat(speaking),
		"Pause Count":         NewFlat(pauseCount),
		"Pause Duration":      NewFlat(pauseDuration),
		"Stutter Count":       NewFlat(stutterCount),
		"Fluency Metrics":     NewMultiSeries(fluency, nil),
		"Lexical Features":    NewMultiSeries(lexical, nil),
		"Structural Features": NewMultiSeries(structural, nil),
		"Semantic Features":   NewMultiSeries(semantic, nil),
	}, nil
}

// collect 把文档中落在 buckets 键上的数值指标归桶
func (a *Aggregator) collect(ctx context.Context, path, label string, buckets map[string]MetricBucket) {
	snap, err := a.store.GetDocument(ctx, path)
	if err != nil || !snap.Exists {
		return
	}
	for metric, bucket := range buckets {
		if v, ok := asNumber(snap.Data[metric]); ok {
			bucket[label] = append(bucket[label], v)
		}
	}
}

// intervals 统计 Pauses/Stutters 子集合的条数与总时长（秒）
func (a *Aggregator) intervals(ctx context.Context, collectionPath string) (int, float64, bool) {
	entries, err := a.store.ListCollection(ctx, collectionPath)
	if err != nil || len(entries) == 0 {
		return 0, 0, false
	}
	var total float64
	for _, e := range entries {
		start, okS := asNumber(e.Data["StartTime"])
		end, okE := asNumber(e.Data["EndTime"])
		if okS && okE && end > start {
			total += end - start
		}
	}
	return len(entries), total, true
}

// gazeCharts naturesGaze 的多系列图表
func (a *Aggregator) gazeCharts(ctx context.Context, patientID string, dateKeys []string, labeler func(time.Time) string) (map[string]ChartInput, error) {
	newSeries := func(keys map[string]string) map[string]MetricBucket {
		out := make(map[string]MetricBucket, len(keys))
		for k := range keys {
			out[k] = MetricBucket{}
		}
		return out
	}
	reaction := newSeries(saccadeSeriesLabels)
	omission := newSeries(saccadeSeriesLabels)
	duration := newSeries(saccadeSeriesLabels)
	direction := newSeries(saccadeSeriesLabels)
	fixation := newSeries(fixationSeriesLabels)

	for _, key := range dateKeys {
		day, err := dates.ParseKey(key)
		if err != nil {
			continue
		}
		label := labeler(day)
		base := fmt.Sprintf("users/%s/dailyReportsSeeMore/%s/naturesGaze", patientID, key)

		a.collectSeries(ctx, base+"/reactionTime", label, reaction)
		a.collectSeries(ctx, base+"/saccadeOmissionPercentages", label, omission)
		a.collectSubSeries(ctx, base+"/saccadeDuration/durations", "Duration", label, duration)
		a.collectSubSeries(ctx, base+"/saccadeDirectionError/errors", "PercentError", label, direction)
		a.collectSubSeries(ctx, base+"/fixationAccuracy/landingAccuracy", "LandingAccuracy", label, fixation)
	}

	return map[string]ChartInput{
		"Reaction Time":                NewMultiSeries(reaction, saccadeSeriesLabels),
		"Saccade Omission Percentages": NewMultiSeries(omission, saccadeSeriesLabels),
		"Saccade Durations":            NewMultiSeries(duration, saccadeSeriesLabels),
		"Saccade Direction Error":      NewMultiSeries(direction, saccadeSeriesLabels),
		"Fixation Accuracy":            NewMultiSeries(fixation, fixationSeriesLabels),
	}, nil
}

// collectSeries 平铺文档：系列键 -> 数值
func (a *Aggregator) collectSeries(ctx context.Context, path, label string, series map[string]MetricBucket) {
	snap, err := a.store.GetDocument(ctx, path)
	if err != nil || !snap.Exists {
		return
	}
	for key, bucket := range series {
		if v, ok := asNumber(snap.Data[key]); ok {
			bucket[label] = append(bucket[label], v)
		}
	}
}

// collectSubSeries 子集合：每个系列一个子文档，取 field 字段
func (a *Aggregator) collectSubSeries(ctx context.Context, collectionPath, field, label string, series map[string]MetricBucket) {
	entries, err := a.store.ListCollection(ctx, collectionPath)
	if err != nil {
		return
	}
	for _, e := range entries {
		bucket, ok := series[e.ID]
		if !ok {
			continue
		}
		if v, ok := asNumber(e.Data[field]); ok {
			bucket[label] = append(bucket[label], v)
		}
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
