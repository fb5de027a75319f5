package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore はPostgreSQLのdocumentsテーブルを使用したStore実装。
// ドキュメント本体はJSONBカラムに保存される。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Collection は指定名のコレクションを返す。
func (s *PostgresStore) Collection(name string) Collection {
	return &postgresCollection{db: s.db, name: name}
}

// postgresCollection は単一コレクションに対するPostgreSQL実装。
type postgresCollection struct {
	db   *sql.DB
	name string
}

// Add はドキュメントを追加する。IDはUUIDで採番する。
func (c *postgresCollection) Add(ctx context.Context, ownerID string, fields Fields) (*Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document fields: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.NewString()

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, owner_id, schema_version, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, c.name, ownerID, SchemaVersion, data, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return &Document{
		ID:        id,
		OwnerID:   ownerID,
		Version:   SchemaVersion,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get は指定IDのドキュメントを取得する。
// 所有者フィルタはクエリに含まれるため、所有者不一致は不在と区別されない。
func (c *postgresCollection) Get(ctx context.Context, id, ownerID string) (*Document, error) {
	doc := &Document{ID: id, OwnerID: ownerID}
	err := c.db.QueryRowContext(ctx,
		`SELECT schema_version, data, created_at, updated_at
		 FROM documents
		 WHERE id = $1 AND collection = $2 AND owner_id = $3`,
		id, c.name, ownerID,
	).Scan(&doc.Version, (*[]byte)(&doc.Data), &doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListByOwner は所有者のドキュメント一覧を作成順で返す。
func (c *postgresCollection) ListByOwner(ctx context.Context, ownerID string) ([]*Document, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, schema_version, data, created_at, updated_at
		 FROM documents
		 WHERE collection = $1 AND owner_id = $2
		 ORDER BY created_at ASC`,
		c.name, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{OwnerID: ownerID}
		if err := rows.Scan(&doc.ID, &doc.Version, (*[]byte)(&doc.Data), &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := validateDocument(doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// Update は指定フィールドをJSONBマージで更新する。
// 単一のUPDATE文で実行されるため、同時書き込みは行ロックで直列化され後勝ちになる。
func (c *postgresCollection) Update(ctx context.Context, id, ownerID string, fields Fields) (*Document, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document patch: %w", err)
	}

	now := time.Now().UTC()
	doc := &Document{ID: id, OwnerID: ownerID}
	err = c.db.QueryRowContext(ctx,
		`UPDATE documents
		 SET data = data || $1::jsonb, updated_at = $2
		 WHERE id = $3 AND collection = $4 AND owner_id = $5
		 RETURNING schema_version, data, created_at, updated_at`,
		patch, now, id, c.name, ownerID,
	).Scan(&doc.Version, (*[]byte)(&doc.Data), &doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Delete は指定IDのドキュメントを削除する。
func (c *postgresCollection) Delete(ctx context.Context, id, ownerID string) error {
	result, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND collection = $2 AND owner_id = $3`,
		id, c.name, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Set は指定IDのドキュメントを作成または全置換する。
func (c *postgresCollection) Set(ctx context.Context, id, ownerID string, fields Fields) (*Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document fields: %w", err)
	}

	now := time.Now().UTC()
	doc := &Document{ID: id, OwnerID: ownerID}
	err = c.db.QueryRowContext(ctx,
		`INSERT INTO documents (id, collection, owner_id, schema_version, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		 RETURNING schema_version, data, created_at, updated_at`,
		id, c.name, ownerID, SchemaVersion, data, now,
	).Scan(&doc.Version, (*[]byte)(&doc.Data), &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set document: %w", err)
	}

	return doc, nil
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
