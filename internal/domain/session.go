package domain

// Pause 语音停顿区间（分析服务返回，秒，保留两位小数）
type Pause struct {
	StartTime float64 `json:"StartTime"`
	EndTime   float64 `json:"EndTime"`
}

// Stutter 口吃区间（与 Pause 同构，单独落在 fluencyMetrics/Stutters 下）
type Stutter struct {
	StartTime float64 `json:"StartTime"`
	EndTime   float64 `json:"EndTime"`
}

// RecallInputs memoryVault 提交的三个回忆输入
type RecallInputs struct {
	Word    string `json:"word"`
	Audio   string `json:"audio"`
	Picture string `json:"picture"`
}

// SessionResult 一次游戏会话的完整结果（单一逻辑事件）
// 三个落库 sink（日报、详细报告、长期快照）各自独立持久化同一个值，
// 保持 best-effort 语义：任何一路写失败不回滚其它两路。
type SessionResult struct {
	PatientID string   `json:"patientId"`
	Game      GameType `json:"game"`
	// DateKey MM-DD-YYYY，三棵文档树共用的自然键
	DateKey string `json:"dateKey"`

	// Summary 紧凑日报指标（dailyReports/{date}/games/{game}）
	Summary map[string]any `json:"summary"`
	// Breakdown 特征分类 -> 指标（dailyReportsSeeMore/{date}/{game}/{category}）
	Breakdown map[string]map[string]any `json:"breakdown,omitempty"`
	// Pauses 变长子列表，落在 temporalCharacteristics/Pauses/{n}
	Pauses []Pause `json:"pauses,omitempty"`
	// Stutters 变长子列表，落在 fluencyMetrics/Stutters/{n}
	Stutters []Stutter `json:"stutters,omitempty"`
	// Subdocs 其余嵌套子文档，键为游戏节点下的相对路径
	// （naturesGaze 的 saccadeDuration/durations/{series} 一类）
	Subdocs map[string]map[string]any `json:"subdocs,omitempty"`

	// TranscriptionFailed 转写中继不可用或超时后的降级标记
	TranscriptionFailed bool `json:"transcriptionFailed,omitempty"`
}
