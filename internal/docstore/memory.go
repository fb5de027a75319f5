package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore はインメモリのStore実装。
// テストおよびデータベースなしのローカル起動で使用する。
// すべての操作はミューテックスで保護され、並行アクセスに対して安全。
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// Collection は指定名のコレクションを返す。存在しない場合は作成する。
func (s *MemoryStore) Collection(name string) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]*memoryDocument)}
		s.collections[name] = c
	}
	return c
}

// memoryDocument はメモリ上のドキュメント実体。
type memoryDocument struct {
	ownerID   string
	version   int
	fields    Fields
	createdAt time.Time
	updatedAt time.Time
}

// memoryCollection は単一コレクションのインメモリ実装。
// orderは作成順のID列を保持し、ListByOwnerの順序を保証する。
type memoryCollection struct {
	mu    sync.Mutex
	docs  map[string]*memoryDocument
	order []string
}

// Add はドキュメントを追加する。
func (c *memoryCollection) Add(ctx context.Context, ownerID string, fields Fields) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	id := uuid.NewString()

	c.docs[id] = &memoryDocument{
		ownerID:   ownerID,
		version:   SchemaVersion,
		fields:    copyFields(fields),
		createdAt: now,
		updatedAt: now,
	}
	c.order = append(c.order, id)

	return c.toDocument(id, c.docs[id])
}

// Get は指定IDのドキュメントを取得する。
func (c *memoryCollection) Get(ctx context.Context, id, ownerID string) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok || doc.ownerID != ownerID {
		return nil, ErrNotFound
	}
	return c.toDocument(id, doc)
}

// ListByOwner は所有者のドキュメント一覧を作成順で返す。
func (c *memoryCollection) ListByOwner(ctx context.Context, ownerID string) ([]*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []*Document
	for _, id := range c.order {
		doc, ok := c.docs[id]
		if !ok || doc.ownerID != ownerID {
			continue
		}
		d, err := c.toDocument(id, doc)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// Update は指定フィールドのみをマージする。
func (c *memoryCollection) Update(ctx context.Context, id, ownerID string, fields Fields) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok || doc.ownerID != ownerID {
		return nil, ErrNotFound
	}

	for k, v := range fields {
		doc.fields[k] = v
	}
	doc.updatedAt = time.Now().UTC()

	return c.toDocument(id, doc)
}

// Delete は指定IDのドキュメントを削除する。
func (c *memoryCollection) Delete(ctx context.Context, id, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok || doc.ownerID != ownerID {
		return ErrNotFound
	}

	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Set は指定IDのドキュメントを作成または全置換する。
func (c *memoryCollection) Set(ctx context.Context, id, ownerID string, fields Fields) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	doc, ok := c.docs[id]
	if !ok {
		doc = &memoryDocument{
			ownerID:   ownerID,
			version:   SchemaVersion,
			createdAt: now,
		}
		c.docs[id] = doc
		c.order = append(c.order, id)
	}
	doc.fields = copyFields(fields)
	doc.updatedAt = now

	return c.toDocument(id, doc)
}

// toDocument はメモリ上の実体を外部向けDocumentに変換する。
// 呼び出し側でロックを保持していること。
func (c *memoryCollection) toDocument(id string, doc *memoryDocument) (*Document, error) {
	data, err := json.Marshal(doc.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document fields: %w", err)
	}

	d := &Document{
		ID:        id,
		OwnerID:   doc.ownerID,
		Version:   doc.version,
		Data:      data,
		CreatedAt: doc.createdAt,
		UpdatedAt: doc.updatedAt,
	}
	if err := validateDocument(d); err != nil {
		return nil, err
	}
	return d, nil
}

// copyFields はフィールド集合の浅いコピーを返す。
// 呼び出し元のマップ変更がストア内部に波及しないようにする。
func copyFields(fields Fields) Fields {
	copied := make(Fields, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
