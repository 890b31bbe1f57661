// Package analysis 文本分析服务客户端（词相似度、词法/句法/语义特征、停顿检测）。
package analysis

import (
	"context"
	"fmt"
	"time"

	"cognify-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TextMetrics /analyze-text 的分析结果
type TextMetrics struct {
	WordsPerMinute        float64 `json:"wordsPerMinute"`
	RepetitionRatio       float64 `json:"repetitionRatio"`
	NounFrequency         float64 `json:"nounFrequency"`
	OpenClosedRatio       float64 `json:"openClosedRatio"`
	ClosedClassCount      float64 `json:"closedClassCount"`
	FillerCount           float64 `json:"fillerCount"`
	NounCount             float64 `json:"nounCount"`
	OpenClassCount        float64 `json:"openClassCount"`
	VerbCount             float64 `json:"verbCount"`
	MeanLengthOfUtterance float64 `json:"meanLengthOfUtterance"`
	SentenceCount         int     `json:"sentenceCount"`
	SpeechDurationSeconds float64 `json:"speechDurationSeconds"`
	// MedianNounFrequency SUBTLEXus 词频表上的名词中位频率
	MedianNounFrequency float64 `json:"medianNounFrequency"`
}

// SemanticMetrics /semantic-content 的语义特征（sceneDetective 按场景词库计算）
type SemanticMetrics struct {
	SemanticEfficiency  float64 `json:"semanticEfficiency"`
	SemanticIdeaDensity float64 `json:"semanticIdeaDensity"`
	SemanticUnits       string  `json:"semanticUnits"`
}

// AudioSegment 转写服务输出的分段（分析服务用末段 end_time 推语速）
type AudioSegment struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Content   string `json:"content"`
}

// Client 文本分析服务客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建分析服务客户端
func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second). // spaCy 大模型首次加载较慢
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// ComputePoints 词相似度打分，范围 [0,4]（实现 scoring.Oracle）
func (c *Client) ComputePoints(ctx context.Context, presented, recalled string) (int, error) {
	var response struct {
		Points int    `json:"points"`
		Error  string `json:"error"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"presented_word": presented,
			"recalled_word":  recalled,
		}).
		SetResult(&response).
		SetError(&response).
		Post("/compute-points")
	if err != nil {
		return 0, fmt.Errorf("analysis service unreachable: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("compute-points failed: status %d: %s", resp.StatusCode(), response.Error)
	}
	return response.Points, nil
}

// AnalyzeText 全量文本特征分析
func (c *Client) AnalyzeText(ctx context.Context, transcript string, segments []AudioSegment) (*TextMetrics, error) {
	var metrics TextMetrics
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"transcript":     transcript,
			"audio_segments": segments,
		}).
		SetResult(&metrics).
		Post("/analyze-text")
	if err != nil {
		return nil, fmt.Errorf("analysis service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analyze-text failed: status %d", resp.StatusCode())
	}
	return &metrics, nil
}

// AnalyzePauses 从完整转写中检测停顿区间
func (c *Client) AnalyzePauses(ctx context.Context, fullTranscription any) ([]domain.Pause, error) {
	var pauses []domain.Pause
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"full_transcription": fullTranscription}).
		SetResult(&pauses).
		Post("/analyze-pauses")
	if err != nil {
		return nil, fmt.Errorf("analysis service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analyze-pauses failed: status %d", resp.StatusCode())
	}
	return pauses, nil
}

// AnalyzeSemanticContent 按场景词库计算语义特征
func (c *Client) AnalyzeSemanticContent(ctx context.Context, transcript string, segments []AudioSegment, wordBank []string) (*SemanticMetrics, error) {
	var metrics SemanticMetrics
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"transcript":     transcript,
			"audio_segments": segments,
			"word_bank":      wordBank,
		}).
		SetResult(&metrics).
		Post("/semantic-content")
	if err != nil {
		return nil, fmt.Errorf("analysis service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("semantic-content failed: status %d", resp.StatusCode())
	}
	c.logger.Debug("semantic content analyzed",
		zap.Float64("efficiency", metrics.SemanticEfficiency),
		zap.Float64("idea_density", metrics.SemanticIdeaDensity))
	return &metrics, nil
}
