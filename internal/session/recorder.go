package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cognify-data/internal/analysis"
	"cognify-data/internal/dates"
	"cognify-data/internal/domain"
	"cognify-data/internal/repository"
	"cognify-data/internal/scoring"
	"cognify-data/internal/transcribe"

	"go.uber.org/zap"
)

// ErrNoActiveSession 提交或提示时没有进行中的会话
var ErrNoActiveSession = errors.New("no active session")

// Transcriber 转写中继（见 transcribe.Client）
type Transcriber interface {
	Submit(ctx context.Context, audio []byte, game, userID, date string, sessionNumber int) (*transcribe.Job, error)
	WaitForTranscript(ctx context.Context, jobName string) (*transcribe.Transcript, error)
}

// Analyzer 文本分析服务（见 analysis.Client）
type Analyzer interface {
	AnalyzeText(ctx context.Context, transcript string, segments []analysis.AudioSegment) (*analysis.TextMetrics, error)
	AnalyzePauses(ctx context.Context, fullTranscription any) ([]domain.Pause, error)
	AnalyzeSemanticContent(ctx context.Context, transcript string, segments []analysis.AudioSegment, wordBank []string) (*analysis.SemanticMetrics, error)
}

// Recorder 会话记录器：串起一次游戏会话从开始到落库的全流程。
// 病人身份全程显式传参，不读任何环境态。
type Recorder struct {
	patients    *repository.PatientsRepo
	buffer      *Buffer
	fanout      *Fanout
	progress    *Progress
	scorer      *scoring.Engine
	transcriber Transcriber
	analyzer    Analyzer
	logger      *zap.Logger
	now         func() time.Time
}

// NewRecorder 创建会话记录器
func NewRecorder(
	patients *repository.PatientsRepo,
	buffer *Buffer,
	fanout *Fanout,
	progress *Progress,
	scorer *scoring.Engine,
	transcriber Transcriber,
	analyzer Analyzer,
	logger *zap.Logger,
) *Recorder {
	return &Recorder{
		patients:    patients,
		buffer:      buffer,
		fanout:      fanout,
		progress:    progress,
		scorer:      scorer,
		transcriber: transcriber,
		analyzer:    analyzer,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock 测试用，固定时钟
func (r *Recorder) SetClock(now func() time.Time) { r.now = now }

// StartResponse 会话开始时下发给前端的刺激内容
type StartResponse struct {
	Game         domain.GameType `json:"game"`
	SessionIndex int             `json:"sessionIndex"`
	Word         string          `json:"word,omitempty"`
	Audio        string          `json:"audio,omitempty"`
	Picture      string          `json:"picture,omitempty"`
	Prompt       string          `json:"prompt,omitempty"`
	Scene        string          `json:"scene,omitempty"`
}

// Start 开始一次会话：确定刺激、建立缓冲状态。
// 同一 sessionIndex 永远得到同一套刺激。
func (r *Recorder) Start(ctx context.Context, patientID string, game domain.GameType) (*StartResponse, error) {
	patient, err := r.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	state := &BufferState{
		State:     StateAwaitingInput,
		Game:      game,
		Revealed:  map[string]string{},
		StartedAt: r.now().Unix(),
	}
	resp := &StartResponse{Game: game}

	switch game {
	case domain.GameMemoryVault:
		idx := bankIndex(patient, len(recallBank))
		stimulus := recallBank[idx]
		state.SessionIndex = idx
		resp.SessionIndex = idx
		resp.Word = stimulus.Word
		resp.Audio = stimulus.Audio
		resp.Picture = stimulus.Picture
	case domain.GameProcessQuest:
		idx := bankIndex(patient, len(promptBank))
		state.SessionIndex = idx
		resp.SessionIndex = idx
		resp.Prompt = promptBank[idx].Prompt
	case domain.GameSceneDetective:
		idx := bankIndex(patient, len(sceneBank))
		state.SessionIndex = idx
		resp.SessionIndex = idx
		resp.Scene = sceneBank[idx].Picture
	case domain.GameNaturesGaze:
		// 眼动任务无刺激库，指标由前端采集后提交
	default:
		return nil, fmt.Errorf("%w: unknown game %q", domain.ErrValidation, game)
	}

	if err := r.buffer.Save(ctx, patientID, state); err != nil {
		return nil, err
	}

	r.logger.Info("session started",
		zap.String("user_id", patientID),
		zap.String("game", string(game)),
		zap.Int("session_index", state.SessionIndex))
	return resp, nil
}

// HintResponse 提示请求结果
type HintResponse struct {
	Hint      string            `json:"hint"`
	HintsUsed int               `json:"hintsUsed"`
	Revealed  map[string]string `json:"revealed"`
}

// Hint memoryVault 提示：每次会话最多 3 次，第 4 次请求不改变任何状态。
// 重复请求同一项返回已揭示的提示，不额外计数。
func (r *Recorder) Hint(ctx context.Context, patientID, field string) (*HintResponse, error) {
	state, err := r.buffer.Load(ctx, patientID, domain.GameMemoryVault)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveSession
	}

	stimulus := recallBank[state.SessionIndex%len(recallBank)]
	var hint string
	switch field {
	case "word":
		hint = stimulus.WordHint
	case "audio":
		hint = stimulus.AudioHint
	case "picture":
		hint = stimulus.PictureHint
	default:
		return nil, fmt.Errorf("%w: unknown hint field %q", domain.ErrValidation, field)
	}

	if revealed, ok := state.Revealed[field]; ok {
		return &HintResponse{Hint: revealed, HintsUsed: state.HintsUsed, Revealed: state.Revealed}, nil
	}
	if state.HintsUsed >= MaxHints {
		return &HintResponse{HintsUsed: state.HintsUsed, Revealed: state.Revealed}, nil
	}

	state.Revealed[field] = hint
	state.HintsUsed++
	if err := r.buffer.Save(ctx, patientID, state); err != nil {
		return nil, err
	}
	return &HintResponse{Hint: hint, HintsUsed: state.HintsUsed, Revealed: state.Revealed}, nil
}

// SubmitRecall memoryVault 提交：打分、fan-out、推进进度
func (r *Recorder) SubmitRecall(ctx context.Context, patientID string, recalled domain.RecallInputs) (*domain.SessionResult, error) {
	patient, err := r.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	state, err := r.buffer.Load(ctx, patientID, domain.GameMemoryVault)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveSession
	}

	stimulus := recallBank[state.SessionIndex%len(recallBank)]
	hints := scoring.HintFlags{
		Word:    state.HintFlagFor("word"),
		Audio:   state.HintFlagFor("audio"),
		Picture: state.HintFlagFor("picture"),
	}
	score, err := r.scorer.ScoreSession(ctx, stimulus.Presented(), recalled, hints)
	if err != nil {
		return nil, err
	}

	state.State = StateSubmitting
	now := r.now()
	summary := map[string]any{
		"Presented":    score.Presented,
		"Recalled":     score.Recalled,
		"HintsUsed":    state.HintsUsed,
		"WordScore":    score.WordScore,
		"AudioScore":   score.AudioScore,
		"PictureScore": score.PictureScore,
		"Timestamp":    now.Format(time.RFC3339),
	}
	result := &domain.SessionResult{
		PatientID: patientID,
		Game:      domain.GameMemoryVault,
		DateKey:   dates.DateKey(now),
		Summary:   summary,
		Breakdown: map[string]map[string]any{
			domain.CategoryRecall: summary,
		},
	}

	return result, r.persist(ctx, patient, state, result)
}

// SubmitSpeech 语音类游戏提交：转写 + 分析 + fan-out。
// 中继或分析失败不终止会话：降级写 transcriptionFailed 标记记录，进度照常推进。
// 空音频视为计时器耗尽的有效提交，产出空指标记录。
func (r *Recorder) SubmitSpeech(ctx context.Context, patientID string, game domain.GameType, audio []byte) (*domain.SessionResult, error) {
	if !game.IsSpeechGame() {
		return nil, fmt.Errorf("%w: %s is not a speech game", domain.ErrValidation, game)
	}
	patient, err := r.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	state, err := r.buffer.Load(ctx, patientID, game)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveSession
	}
	state.State = StateSubmitting

	now := r.now()
	result := &domain.SessionResult{
		PatientID: patientID,
		Game:      game,
		DateKey:   dates.DateKey(now),
		Summary:   map[string]any{},
		Breakdown: map[string]map[string]any{},
	}

	if len(audio) == 0 {
		// 计时器到点但没有录到任何语音
		r.fillSpeechMetrics(result, "", nil, nil, state)
	} else if err := r.runSpeechPipeline(ctx, patient, state, audio, now, result); err != nil {
		r.logger.Warn("speech pipeline degraded, writing flagged record",
			zap.String("user_id", patientID),
			zap.String("game", string(game)),
			zap.Error(err))
		result.TranscriptionFailed = true
		result.Summary = map[string]any{"transcriptionFailed": true}
		result.Breakdown = map[string]map[string]any{}
		result.Pauses = nil
		result.Stutters = nil
	}

	return result, r.persist(ctx, patient, state, result)
}

func (r *Recorder) runSpeechPipeline(ctx context.Context, patient *domain.Patient, state *BufferState, audio []byte, now time.Time, result *domain.SessionResult) error {
	job, err := r.transcriber.Submit(ctx, audio, string(state.Game), patient.ID, result.DateKey, patient.PlayCount+1)
	if err != nil {
		return err
	}
	transcript, err := r.transcriber.WaitForTranscript(ctx, job.Name)
	if err != nil {
		return err
	}

	text, err := r.analyzer.AnalyzeText(ctx, transcript.Transcript, transcript.Segments)
	if err != nil {
		return err
	}
	pauses, err := r.analyzer.AnalyzePauses(ctx, transcript.Full)
	if err != nil {
		return err
	}

	var semantic *analysis.SemanticMetrics
	if state.Game == domain.GameSceneDetective {
		scene := sceneBank[state.SessionIndex%len(sceneBank)]
		semantic, err = r.analyzer.AnalyzeSemanticContent(ctx, transcript.Transcript, transcript.Segments, scene.WordBank)
		if err != nil {
			return err
		}
	}

	r.fillSpeechMetrics(result, transcript.Transcript, text, semantic, state)
	result.Pauses = pauses
	return nil
}

// fillSpeechMetrics 把分析结果摊到日报指标与特征分类文档。
// text 为 nil 时产出空指标记录（空转写仍是有效会话）。
func (r *Recorder) fillSpeechMetrics(result *domain.SessionResult, transcript string, text *analysis.TextMetrics, semantic *analysis.SemanticMetrics, state *BufferState) {
	if text == nil {
		result.Summary = map[string]any{"Transcript": transcript}
		return
	}

	result.Summary = map[string]any{
		"AverageNounLexicalFrequency": text.NounFrequency,
		"OpenedClosedRatio":           text.OpenClosedRatio,
		"RepetitionRatio":             text.RepetitionRatio,
	}
	result.Breakdown[domain.CategoryFluency] = map[string]any{
		"RepetitionRatio": text.RepetitionRatio,
		"WordsPerMin":     text.WordsPerMinute,
	}
	result.Breakdown[domain.CategoryLexical] = map[string]any{
		"ClosedClass": text.ClosedClassCount,
		"Filler":      text.FillerCount,
		"Noun":        text.NounFrequency,
		"OpenClass":   text.OpenClassCount,
		"Verb":        text.VerbCount,
	}
	result.Breakdown[domain.CategorySemantic] = map[string]any{
		"LexicalFrequencyOfNouns": text.MedianNounFrequency,
	}
	result.Breakdown[domain.CategoryStructural] = map[string]any{
		"MeanLengthOfOccurrence": text.MeanLengthOfUtterance,
		"NumOfSentences":         text.SentenceCount,
	}
	result.Breakdown[domain.CategoryTemporal] = map[string]any{
		"SpeakingTime": text.SpeechDurationSeconds,
	}

	if semantic != nil {
		result.Summary["SemanticEfficiency"] = semantic.SemanticEfficiency
		sem := result.Breakdown[domain.CategorySemantic]
		sem["SemanticEfficiency"] = semantic.SemanticEfficiency
		sem["SemanticIdeaDensity"] = semantic.SemanticIdeaDensity
		sem["SemanticUnits"] = semantic.SemanticUnits
	}
}

// GazeMetrics naturesGaze 前端采集的眼动指标，按任务序列分组
type GazeMetrics struct {
	ReactionTime               map[string]float64 `json:"reactionTime"`
	SaccadeOmissionPercentages map[string]float64 `json:"saccadeOmissionPercentages"`
	SaccadeDurations           map[string]float64 `json:"saccadeDurations"`
	SaccadeDirectionErrors     map[string]float64 `json:"saccadeDirectionErrors"`
	FixationAccuracy           map[string]float64 `json:"fixationAccuracy"`
}

// SubmitGaze naturesGaze 提交：指标已在前端算好，这里只负责 fan-out 与进度
func (r *Recorder) SubmitGaze(ctx context.Context, patientID string, metrics GazeMetrics) (*domain.SessionResult, error) {
	patient, err := r.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	state, err := r.buffer.Load(ctx, patientID, domain.GameNaturesGaze)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveSession
	}
	state.State = StateSubmitting

	now := r.now()
	result := &domain.SessionResult{
		PatientID: patientID,
		Game:      domain.GameNaturesGaze,
		DateKey:   dates.DateKey(now),
		Summary: map[string]any{
			"AverageReactionTime":       meanOf(metrics.ReactionTime),
			"SaccadeOmissionPercentage": meanOf(metrics.SaccadeOmissionPercentages),
			"FixationAccuracy":          meanOf(metrics.FixationAccuracy),
		},
		Breakdown: map[string]map[string]any{
			"reactionTime":               toDoc(metrics.ReactionTime),
			"saccadeOmissionPercentages": toDoc(metrics.SaccadeOmissionPercentages),
			"saccadeDuration":            {},
			"saccadeDirectionError":      {},
			"fixationAccuracy":           {},
		},
		Subdocs: map[string]map[string]any{},
	}
	for series, v := range metrics.SaccadeDurations {
		result.Subdocs["saccadeDuration/durations/"+series] = map[string]any{"Duration": v}
	}
	for series, v := range metrics.SaccadeDirectionErrors {
		result.Subdocs["saccadeDirectionError/errors/"+series] = map[string]any{"PercentError": v}
	}
	for series, v := range metrics.FixationAccuracy {
		result.Subdocs["fixationAccuracy/landingAccuracy/"+series] = map[string]any{"LandingAccuracy": v}
	}

	return result, r.persist(ctx, patient, state, result)
}

// persist 统一的落库收尾：fan-out、进度推进、缓冲清理
func (r *Recorder) persist(ctx context.Context, patient *domain.Patient, state *BufferState, result *domain.SessionResult) error {
	r.fanout.Persist(ctx, result)

	if err := r.progress.MarkCompleted(ctx, patient, r.now()); err != nil {
		// 进度写失败不撤销已写的报告文档
		r.logger.Error("progress update failed",
			zap.String("user_id", patient.ID),
			zap.Error(err))
	}

	state.State = StatePersisted
	if err := r.buffer.Clear(ctx, patient.ID, result.Game); err != nil {
		r.logger.Warn("session buffer cleanup failed",
			zap.String("user_id", patient.ID),
			zap.Error(err))
	}

	r.logger.Info("session persisted",
		zap.String("user_id", patient.ID),
		zap.String("game", string(result.Game)),
		zap.String("date", result.DateKey),
		zap.Bool("transcription_failed", result.TranscriptionFailed))
	return nil
}

func meanOf(series map[string]float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func toDoc(series map[string]float64) map[string]any {
	doc := make(map[string]any, len(series))
	for k, v := range series {
		doc[k] = v
	}
	return doc
}
