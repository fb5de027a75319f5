// Package identity は外部IDプロバイダーとの連携を提供する。
// トークン検証、サインインREST API、認証状態の通知を担当する。
package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/hitoshi/todoman/internal/config"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/security"
)

// keyRefreshInterval は鍵セット再取得の最小間隔。
// 未知のkidを持つトークンが連続しても、この間隔以上の頻度では
// 鍵セットエンドポイントへ問い合わせない。
const keyRefreshInterval = time.Minute

// Verifier はIDトークンの検証インターフェース。
type Verifier interface {
	// VerifyToken はIDトークンを検証し、クレームを返す。
	// 検証失敗はすべて認証エラーとして返す。
	VerifyToken(ctx context.Context, token string) (*model.Claims, error)
}

// identityClaims はIDプロバイダーが発行するトークンのクレーム構造。
type identityClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	UserID  string `json:"user_id"`
}

// TokenVerifier はIDプロバイダーの公開鍵セットでRS256署名を検証する。
// 鍵セットは取得結果をキャッシュし、未知のkidに遭遇した場合のみ
// レートリミッタ経由で再取得する。
type TokenVerifier struct {
	issuer    string
	audience  string
	keySetURL string
	client    *http.Client
	limiter   *rate.Limiter
	parser    *jwt.Parser

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewTokenVerifier はTokenVerifierを生成する。
// 開発モードではエミュレータのループバックアドレスを許可する。
func NewTokenVerifier(cfg *config.Config, guard security.OutboundGuardService) *TokenVerifier {
	allowLocal := cfg.Mode == config.ModeDevelopment
	return &TokenVerifier{
		issuer:    cfg.IdentityIssuer,
		audience:  cfg.IdentityAudience,
		keySetURL: cfg.IdentityKeySetURL,
		client:    guard.NewClient(cfg.HTTPTimeout, allowLocal),
		limiter:   rate.NewLimiter(rate.Every(keyRefreshInterval), 1),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(cfg.IdentityIssuer),
			jwt.WithAudience(cfg.IdentityAudience),
			jwt.WithExpirationRequired(),
		),
		keys: make(map[string]*rsa.PublicKey),
	}
}

// VerifyToken はIDトークンを検証し、クレームを返す。
func (v *TokenVerifier) VerifyToken(ctx context.Context, token string) (*model.Claims, error) {
	var claims identityClaims
	if _, err := v.parser.ParseWithClaims(token, &claims, v.keyFunc(ctx)); err != nil {
		slog.Debug("トークン検証に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAuthenticationError("")
	}

	uid := claims.Subject
	if uid == "" {
		uid = claims.UserID
	}
	if uid == "" {
		return nil, model.NewAuthenticationError("")
	}

	return &model.Claims{
		UID:     uid,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// keyFunc はkidに対応する検証鍵を返すKeyfuncを生成する。
// 未知のkidの場合は鍵セットを再取得してから再検索する。
func (v *TokenVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("missing kid in token header")
		}

		if key, ok := v.lookupKey(kid); ok {
			return key, nil
		}

		if err := v.refreshKeys(ctx); err != nil {
			return nil, err
		}

		key, ok := v.lookupKey(kid)
		if !ok {
			return nil, fmt.Errorf("unknown key id: %s", kid)
		}
		return key, nil
	}
}

// lookupKey はキャッシュからkidに対応する鍵を検索する。
func (v *TokenVerifier) lookupKey(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok := v.keys[kid]
	return key, ok
}

// refreshKeys は鍵セットエンドポイントから鍵を再取得する。
// レートリミッタで再取得頻度を制限する。
func (v *TokenVerifier) refreshKeys(ctx context.Context) error {
	if !v.limiter.Allow() {
		return fmt.Errorf("key set refresh throttled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keySetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create key set request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("key set request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("key set fetch failed with status %d", resp.StatusCode)
	}

	// kid → PEM形式のX.509証明書
	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("failed to parse key set response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseCertPublicKey(certPEM)
		if err != nil {
			return fmt.Errorf("failed to parse certificate for kid %s: %w", kid, err)
		}
		keys[kid] = key
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()

	slog.Info("鍵セットを更新しました",
		slog.Int("key_count", len(keys)),
	)
	return nil
}

// parseCertPublicKey はPEM形式のX.509証明書からRSA公開鍵を取り出す。
func parseCertPublicKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate does not contain an RSA public key")
	}
	return key, nil
}

// compile-time interface check
var _ Verifier = (*TokenVerifier)(nil)
