package domain

import "fmt"

// GameType 认知评估游戏类型
type GameType string

const (
	GameMemoryVault    GameType = "memoryVault"
	GameNaturesGaze    GameType = "naturesGaze"
	GameProcessQuest   GameType = "processQuest"
	GameSceneDetective GameType = "sceneDetective"
)

// ParseGameType 解析游戏类型（路由参数）
func ParseGameType(s string) (GameType, error) {
	switch GameType(s) {
	case GameMemoryVault, GameNaturesGaze, GameProcessQuest, GameSceneDetective:
		return GameType(s), nil
	}
	return "", fmt.Errorf("unknown game type: %q", s)
}

// IsSpeechGame 语音类游戏在 Presenting 阶段即开始录音，提交后走转写+分析流程
func (g GameType) IsSpeechGame() bool {
	return g == GameProcessQuest || g == GameSceneDetective
}

// DisplayName 前端展示名称
func (g GameType) DisplayName() string {
	switch g {
	case GameMemoryVault:
		return "Memory Vault"
	case GameNaturesGaze:
		return "Nature's Gaze I/II"
	case GameProcessQuest:
		return "Process Quest"
	case GameSceneDetective:
		return "Scene Detective"
	}
	return string(g)
}

// 详细报告（see more）中的特征分类文档名
const (
	CategoryFluency    = "fluencyMetrics"
	CategoryLexical    = "lexicalFeatures"
	CategorySemantic   = "semanticFeatures"
	CategoryStructural = "structuralFeatures"
	CategoryTemporal   = "temporalCharacteristics"
	// memoryVault 不按特征分类，只有单一文档
	CategoryRecall = "recallSpeedAndAccuracy"
)

// SpeechCategories 语音类游戏的特征分类（写入顺序固定，便于日志对账）
var SpeechCategories = []string{
	CategoryFluency,
	CategoryLexical,
	CategorySemantic,
	CategoryStructural,
	CategoryTemporal,
}
