package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// allowedSchemes は外部エンドポイントで許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// OutboundGuardService はIDプロバイダー等の外部エンドポイントへの
// アウトバウンドHTTPアクセスの保護機能を定義する。
// エンドポイントURLは設定でオーバーライド可能（認証エミュレータ等）なため、
// 本番モードではsafeurlによるIP検証付きクライアントを使用する。
type OutboundGuardService interface {
	// NewClient はアウトバウンド用HTTPクライアントを生成する。
	// allowLocal=falseの場合、safeurlによりプライベートIP、ループバック、
	// リンクローカル、メタデータIPへのリクエストがブロックされる。
	// DNS再バインディング攻撃への対策も有効化される。
	// allowLocal=trueの場合（ローカル開発・エミュレータ）は通常のクライアントを返す。
	NewClient(timeout time.Duration, allowLocal bool) *http.Client

	// ValidateEndpointURL は設定されたエンドポイントURLの妥当性を事前に検証する。
	ValidateEndpointURL(rawURL string, allowLocal bool) error
}

// outboundGuard はOutboundGuardServiceの実装。
type outboundGuard struct{}

// NewOutboundGuard はOutboundGuardServiceの新しいインスタンスを生成する。
func NewOutboundGuard() *outboundGuard {
	return &outboundGuard{}
}

// NewClient はアウトバウンド用HTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
func (g *outboundGuard) NewClient(timeout time.Duration, allowLocal bool) *http.Client {
	if allowLocal {
		// エミュレータはループバックで動作するためIP検証は行わない
		return &http.Client{Timeout: timeout}
	}

	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateEndpointURL は設定されたエンドポイントURLの妥当性を事前に検証する。
// スキームとホストの静的検証のみを行う。IPレベルの検証はNewClientが
// 生成するクライアント側のDialer検証で行われる。
func (g *outboundGuard) ValidateEndpointURL(rawURL string, allowLocal bool) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	// 本番モードではhttpsのみ許可
	if !allowLocal && scheme != "https" {
		return fmt.Errorf("identity endpoint must use https: %s", rawURL)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	return nil
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// compile-time interface check
var _ OutboundGuardService = (*outboundGuard)(nil)
