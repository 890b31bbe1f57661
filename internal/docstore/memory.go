package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore 内存文档存储（DB_ENABLED=false 的本地开发回退 + 单元测试）
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore 创建内存文档存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func (m *MemoryStore) GetDocument(_ context.Context, path string) (*Snapshot, error) {
	if err := ValidateDocumentPath(path); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[NormalizePath(path)]
	if !ok {
		return &Snapshot{Exists: false}, nil
	}
	return &Snapshot{Exists: true, Data: cloneDoc(data)}, nil
}

func (m *MemoryStore) SetDocument(_ context.Context, path string, data map[string]any) error {
	if err := ValidateDocumentPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[NormalizePath(path)] = cloneDoc(data)
	return nil
}

func (m *MemoryStore) UpdateDocument(_ context.Context, path string, partial map[string]any) error {
	if err := ValidateDocumentPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizePath(path)
	existing, ok := m.docs[key]
	if !ok {
		return ErrNotFound
	}
	for k, v := range partial {
		existing[k] = v
	}
	return nil
}

func (m *MemoryStore) EnsureDocument(_ context.Context, path string) error {
	if err := ValidateDocumentPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizePath(path)
	if _, ok := m.docs[key]; !ok {
		m.docs[key] = map[string]any{}
	}
	return nil
}

func (m *MemoryStore) ListCollection(_ context.Context, path string) ([]Entry, error) {
	if err := ValidateCollectionPath(path); err != nil {
		return nil, err
	}
	prefix := NormalizePath(path) + "/"
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for key, data := range m.docs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if strings.Contains(rest, "/") {
			// deeper descendant, not a direct child
			continue
		}
		entries = append(entries, Entry{ID: rest, Data: cloneDoc(data)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func cloneDoc(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
