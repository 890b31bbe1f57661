// Package scoring 回忆得分引擎：逐项调用相似度服务打分，应用提示惩罚。
package scoring

import (
	"context"
	"fmt"
	"strings"

	"cognify-data/internal/domain"

	"go.uber.org/zap"
)

// MaxPoints 单项得分上限（完全匹配）
const MaxPoints = 4

// Oracle 外部文本相似度服务（spaCy 词向量，见 analysis.Client）
type Oracle interface {
	ComputePoints(ctx context.Context, presented, recalled string) (int, error)
}

// HintFlags 三个输入项各自是否用过提示
type HintFlags struct {
	Word    bool `json:"word"`
	Audio   bool `json:"audio"`
	Picture bool `json:"picture"`
}

// SessionScore 一次回忆会话的得分记录
type SessionScore struct {
	WordScore    int       `json:"wordScore"`
	AudioScore   int       `json:"audioScore"`
	PictureScore int       `json:"pictureScore"`
	Hints        HintFlags `json:"hints"`
	// Presented/Recalled 逗号拼接的原文，供报告页审计展示
	Presented string `json:"Presented"`
	Recalled  string `json:"Recalled"`
}

// Engine 得分引擎
type Engine struct {
	oracle Oracle
	logger *zap.Logger
}

// NewEngine 创建得分引擎
func NewEngine(oracle Oracle, logger *zap.Logger) *Engine {
	return &Engine{oracle: oracle, logger: logger}
}

// ScorePair 单项打分：相似度服务给出基础分，用过提示则减 1，下限 0
func (e *Engine) ScorePair(ctx context.Context, presented, recalled string, hintUsed bool) (int, error) {
	points, err := e.oracle.ComputePoints(ctx, presented, recalled)
	if err != nil {
		return 0, fmt.Errorf("compute points: %w", err)
	}
	if points < 0 {
		points = 0
	}
	if points > MaxPoints {
		points = MaxPoints
	}
	if hintUsed {
		points--
		if points < 0 {
			points = 0
		}
	}
	return points, nil
}

// ScoreSession 对 word/audio/picture 三项独立打分，任一项为 0 不影响其余项。
// 任一回忆输入为空返回 ErrValidation，调用方应阻止提交并提示用户补全。
func (e *Engine) ScoreSession(ctx context.Context, presented, recalled domain.RecallInputs, hints HintFlags) (*SessionScore, error) {
	if strings.TrimSpace(recalled.Word) == "" ||
		strings.TrimSpace(recalled.Audio) == "" ||
		strings.TrimSpace(recalled.Picture) == "" {
		return nil, fmt.Errorf("%w: all three recall fields are required", domain.ErrValidation)
	}

	wordScore, err := e.ScorePair(ctx, presented.Word, recalled.Word, hints.Word)
	if err != nil {
		return nil, err
	}
	audioScore, err := e.ScorePair(ctx, presented.Audio, recalled.Audio, hints.Audio)
	if err != nil {
		return nil, err
	}
	pictureScore, err := e.ScorePair(ctx, presented.Picture, recalled.Picture, hints.Picture)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("recall session scored",
		zap.Int("word", wordScore),
		zap.Int("audio", audioScore),
		zap.Int("picture", pictureScore))

	return &SessionScore{
		WordScore:    wordScore,
		AudioScore:   audioScore,
		PictureScore: pictureScore,
		Hints:        hints,
		Presented:    joinWords(presented.Word, presented.Audio, presented.Picture),
		Recalled:     joinWords(recalled.Word, recalled.Audio, recalled.Picture),
	}, nil
}

// joinWords 逗号拼接非空词（与报告页回读时的 split 约定配套）
func joinWords(words ...string) string {
	var kept []string
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, ", ")
}
