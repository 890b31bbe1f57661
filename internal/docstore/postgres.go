package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// PostgresStore 基于 Postgres JSONB 的文档存储。
// documents 表按完整路径主键存储，parent_path 冗余列支持集合列举。
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore 创建 Postgres 文档存储
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Schema 建表语句（迁移脚本引用）
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    path        TEXT PRIMARY KEY,
    parent_path TEXT NOT NULL,
    doc_id      TEXT NOT NULL,
    data        JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent_path);
`

func (p *PostgresStore) GetDocument(ctx context.Context, path string) (*Snapshot, error) {
	if err := ValidateDocumentPath(path); err != nil {
		return nil, err
	}
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE path = $1`,
		NormalizePath(path),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return &Snapshot{Exists: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return &Snapshot{Exists: true, Data: data}, nil
}

func (p *PostgresStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	if err := ValidateDocumentPath(path); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	key := NormalizePath(path)
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO documents (path, parent_path, doc_id, data, updated_at)
         VALUES ($1, $2, $3, $4, now())
         ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		key, ParentCollection(key), docID(key), raw,
	)
	if err != nil {
		return fmt.Errorf("set document %s: %w", path, err)
	}
	return nil
}

func (p *PostgresStore) UpdateDocument(ctx context.Context, path string, partial map[string]any) error {
	if err := ValidateDocumentPath(path); err != nil {
		return err
	}
	raw, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode partial %s: %w", path, err)
	}
	result, err := p.db.ExecContext(ctx,
		`UPDATE documents SET data = data || $2::jsonb, updated_at = now() WHERE path = $1`,
		NormalizePath(path), raw,
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", path, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document %s: %w", path, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) EnsureDocument(ctx context.Context, path string) error {
	if err := ValidateDocumentPath(path); err != nil {
		return err
	}
	key := NormalizePath(path)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO documents (path, parent_path, doc_id, data)
         VALUES ($1, $2, $3, '{}'::jsonb)
         ON CONFLICT (path) DO NOTHING`,
		key, ParentCollection(key), docID(key),
	)
	if err != nil {
		return fmt.Errorf("ensure document %s: %w", path, err)
	}
	return nil
}

func (p *PostgresStore) ListCollection(ctx context.Context, path string) ([]Entry, error) {
	if err := ValidateCollectionPath(path); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT doc_id, data FROM documents WHERE parent_path = $1 ORDER BY doc_id`,
		NormalizePath(path),
	)
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", path, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan collection %s: %w", path, err)
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			p.logger.Warn("skipping undecodable document",
				zap.String("collection", path),
				zap.String("doc_id", id),
				zap.Error(err))
			continue
		}
		entries = append(entries, Entry{ID: id, Data: data})
	}
	return entries, rows.Err()
}

func docID(normalizedPath string) string {
	parent := ParentCollection(normalizedPath)
	if parent == "" {
		return normalizedPath
	}
	return normalizedPath[len(parent)+1:]
}
