package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cognify-data/internal/domain"
	"cognify-data/internal/store"
)

// State 会话状态机
type State string

const (
	StateIdle          State = "idle"
	StatePresenting    State = "presenting"
	StateAwaitingInput State = "awaitingInput"
	StateSubmitting    State = "submitting"
	StatePersisted     State = "persisted"
)

// MaxHints 单次会话全部输入项共享的提示上限
const MaxHints = 3

// BufferState 进行中会话的缓冲状态（Redis，TTL 到期自动废弃）
type BufferState struct {
	State        State           `json:"state"`
	Game         domain.GameType `json:"game"`
	SessionIndex int             `json:"sessionIndex"`
	HintsUsed    int             `json:"hintsUsed"`
	// Revealed 已揭示的提示，键为输入项名（word/audio/picture）
	Revealed  map[string]string `json:"revealed"`
	StartedAt int64             `json:"startedAt"`
}

// HintFlagFor 某输入项是否用过提示
func (b *BufferState) HintFlagFor(field string) bool {
	_, ok := b.Revealed[field]
	return ok
}

// Buffer 会话缓冲，键 session:{userId}:{game}
type Buffer struct {
	kv  store.KV
	ttl time.Duration
}

// NewBuffer 创建会话缓冲
func NewBuffer(kv store.KV, ttl time.Duration) *Buffer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Buffer{kv: kv, ttl: ttl}
}

func bufferKey(userID string, game domain.GameType) string {
	return fmt.Sprintf("session:%s:%s", userID, game)
}

// Load 读取进行中会话，不存在返回 (nil, nil)
func (b *Buffer) Load(ctx context.Context, userID string, game domain.GameType) (*BufferState, error) {
	raw, err := b.kv.Get(ctx, bufferKey(userID, game))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session buffer: %w", err)
	}
	var state BufferState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode session buffer: %w", err)
	}
	return &state, nil
}

// Save 写回会话状态并续 TTL
func (b *Buffer) Save(ctx context.Context, userID string, state *BufferState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session buffer: %w", err)
	}
	if err := b.kv.Set(ctx, bufferKey(userID, state.Game), string(raw), b.ttl); err != nil {
		return fmt.Errorf("save session buffer: %w", err)
	}
	return nil
}

// Clear 会话落库后清除缓冲
func (b *Buffer) Clear(ctx context.Context, userID string, game domain.GameType) error {
	return b.kv.Delete(ctx, bufferKey(userID, game))
}
