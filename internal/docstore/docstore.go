// Package docstore はコレクション指向ドキュメントストアの抽象を提供する。
//
// ドキュメントのIDとタイムスタンプはストア側で採番・設定される
// （クライアント指定のIDは受け付けない）。
// すべての操作は単一ドキュメントに対するもので、ドキュメント横断の
// トランザクションは提供しない。
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// SchemaVersion は書き込み時にドキュメントへ付与されるスキーマバージョン。
// 読み取り時に検証され、未知のバージョンはエラーになる。
const SchemaVersion = 1

// ErrNotFound は対象ドキュメントが存在しないか、
// 指定された所有者のものでない場合に返されるセンチネルエラー。
var ErrNotFound = errors.New("docstore: document not found")

// ErrInvalidDocument は読み取ったドキュメントが検証に失敗した場合に返される。
var ErrInvalidDocument = errors.New("docstore: invalid document")

// Document はストアに保存されたドキュメントとそのメタデータを表す。
type Document struct {
	ID        string
	OwnerID   string
	Version   int
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields はドキュメント本体のフィールド集合を表す。
type Fields map[string]interface{}

// Collection は単一コレクションに対するドキュメント操作のインターフェース。
type Collection interface {
	// Add はドキュメントを追加する。IDを採番し、created_at=updated_at=nowを設定する。
	Add(ctx context.Context, ownerID string, fields Fields) (*Document, error)

	// Get は指定IDのドキュメントを取得する。
	// 不在または所有者不一致の場合はErrNotFoundを返す。
	Get(ctx context.Context, id, ownerID string) (*Document, error)

	// ListByOwner は所有者のドキュメント一覧を作成順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*Document, error)

	// Update は指定フィールドのみをマージし、updated_at=nowを設定する。
	// 不在または所有者不一致の場合はErrNotFoundを返す。
	// 同一ドキュメントへの同時書き込みは後勝ち（last-write-wins）で解決される。
	Update(ctx context.Context, id, ownerID string, fields Fields) (*Document, error)

	// Delete は指定IDのドキュメントを削除する。
	// 不在または所有者不一致の場合はErrNotFoundを返す。
	Delete(ctx context.Context, id, ownerID string) error

	// Set は指定IDのドキュメントを作成または全置換する。
	// プロファイルのようにIDが外部（認証UID）で決まるコレクション向け。
	Set(ctx context.Context, id, ownerID string, fields Fields) (*Document, error)
}

// Store は名前付きコレクションへのアクセスを提供する。
type Store interface {
	// Collection は指定名のコレクションを返す。
	Collection(name string) Collection
}

// validateDocument は読み取ったドキュメントを検証する。
// スキーマバージョンと本体の存在を確認する。
func validateDocument(doc *Document) error {
	if doc.Version != SchemaVersion {
		return ErrInvalidDocument
	}
	if len(doc.Data) == 0 {
		return ErrInvalidDocument
	}
	if !json.Valid(doc.Data) {
		return ErrInvalidDocument
	}
	return nil
}
