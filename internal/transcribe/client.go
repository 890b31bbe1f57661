// Package transcribe 转写中继客户端：上传音频、按固定间隔轮询直到转写完成或超出重试上限。
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cognify-data/internal/analysis"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrPending 转写任务尚未完成
var ErrPending = errors.New("transcription pending")

// ErrTimedOut 轮询超出重试上限（调用方降级写 transcriptionFailed 记录）
var ErrTimedOut = errors.New("transcription poll timed out")

// Job 已提交的转写任务
type Job struct {
	Name string `json:"jobName"`
}

// Transcript 转写结果
type Transcript struct {
	Transcript string                  `json:"transcript"`
	Segments   []analysis.AudioSegment `json:"audio_segments"`
	// Full 原始完整转写（停顿分析用，结构透传）
	Full json.RawMessage `json:"full_transcription"`
}

// Client 转写中继客户端
type Client struct {
	httpClient   *resty.Client
	pollInterval time.Duration
	maxAttempts  int
	logger       *zap.Logger
}

// NewClient 创建转写中继客户端
func NewClient(baseURL string, pollInterval time.Duration, maxAttempts int, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second) // 音频上传较大

	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}

	return &Client{
		httpClient:   client,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Submit 上传音频并启动转写任务
func (c *Client) Submit(ctx context.Context, audio []byte, game, userID, date string, sessionNumber int) (*Job, error) {
	var job Job
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("audio", "recording.wav", bytes.NewReader(audio)).
		SetFormData(map[string]string{
			"game":          game,
			"userId":        userID,
			"date":          date,
			"sessionNumber": fmt.Sprintf("%d", sessionNumber),
		}).
		SetResult(&job).
		Post("/transcribe")
	if err != nil {
		return nil, fmt.Errorf("transcription relay unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transcribe submit failed: status %d", resp.StatusCode())
	}
	if job.Name == "" {
		return nil, errors.New("transcribe submit: empty job name")
	}
	c.logger.Info("transcription job started",
		zap.String("job_name", job.Name),
		zap.String("user_id", userID),
		zap.String("game", game))
	return &job, nil
}

// Poll 查询一次转写状态，未完成返回 ErrPending
func (c *Client) Poll(ctx context.Context, jobName string) (*Transcript, error) {
	var result struct {
		Transcript
		Status string `json:"status"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/transcription/" + jobName)
	if err != nil {
		return nil, fmt.Errorf("transcription relay unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transcription poll failed: status %d", resp.StatusCode())
	}
	if result.Transcript.Transcript == "" && result.Status != "" {
		return nil, fmt.Errorf("%w: %s", ErrPending, result.Status)
	}
	return &result.Transcript, nil
}

// WaitForTranscript 轮询直到转写完成。超出 maxAttempts 返回 ErrTimedOut，
// ctx 取消立即退出。
func (c *Client) WaitForTranscript(ctx context.Context, jobName string) (*Transcript, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		transcript, err := c.Poll(ctx, jobName)
		if err == nil {
			return transcript, nil
		}
		if !errors.Is(err, ErrPending) {
			return nil, err
		}
		c.logger.Debug("transcription not ready",
			zap.String("job_name", jobName),
			zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return nil, fmt.Errorf("%w: job %s after %d attempts", ErrTimedOut, jobName, c.maxAttempts)
}
