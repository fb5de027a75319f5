// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TitleSanitizerService はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
// Todoタイトルとプロファイル表示名の保存前に使用される。
type TitleSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去したプレーンテキストを返す。
	// タイトルや表示名はマークアップを含まない想定のため、許可タグはない。
	Sanitize(input string) string
}

// titleSanitizer はTitleSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type titleSanitizer struct {
	policy *bluemonday.Policy
}

// NewTitleSanitizer はTitleSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全タグ・全属性を除去し、テキストのみを残す。
func NewTitleSanitizer() *titleSanitizer {
	return &titleSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize は入力からHTMLタグをすべて除去したプレーンテキストを返す。
// bluemondayはテキストをHTMLエンティティとしてエスケープするため、
// プレーンテキストとして扱えるようアンエスケープしてから返す。
func (s *titleSanitizer) Sanitize(input string) string {
	cleaned := s.policy.Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ TitleSanitizerService = (*titleSanitizer)(nil)
