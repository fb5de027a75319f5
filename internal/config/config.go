// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode はアプリケーションの実行モードを表す。
// クライアントのAPIベースURLの選択に使用される。
type Mode string

const (
	// ModeDevelopment はローカル開発モード。
	ModeDevelopment Mode = "development"
	// ModeProduction は本番モード。
	ModeProduction Mode = "production"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Mode
	Mode Mode

	// Database
	DatabaseURL string

	// Identity Provider
	IdentityProjectID string
	IdentityAPIKey    string
	IdentityIssuer    string
	IdentityAudience  string
	IdentityBaseURL   string
	IdentityKeySetURL string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigins []string

	// Client
	APIBaseURLDev  string
	APIBaseURLProd string

	// Timeout
	HTTPTimeout time.Duration
}

// identityKeySetURL はIDプロバイダーの署名鍵セットのデフォルト配布URL。
const identityKeySetURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// identityBaseURL はIDプロバイダーRESTエンドポイントのデフォルトベースURL。
const identityBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルが存在する場合は先に読み込む
// （既に設定済みの環境変数は上書きされない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envはローカル開発用。存在しない場合のエラーは無視する。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.IdentityProjectID = os.Getenv("IDENTITY_PROJECT_ID")
	if cfg.IdentityProjectID == "" {
		missing = append(missing, "IDENTITY_PROJECT_ID")
	}

	cfg.IdentityAPIKey = os.Getenv("IDENTITY_API_KEY")
	if cfg.IdentityAPIKey == "" {
		missing = append(missing, "IDENTITY_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Mode = parseMode(getEnvString("APP_MODE", string(ModeDevelopment)))
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigins = splitAndTrim(getEnvString("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))
	cfg.APIBaseURLDev = getEnvString("API_BASE_URL_DEV", "http://127.0.0.1:"+cfg.ServerPort)
	cfg.APIBaseURLProd = getEnvString("API_BASE_URL_PROD", "")
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 10*time.Second)

	// IDプロバイダーのエンドポイントはエミュレータ向けにオーバーライド可能
	cfg.IdentityBaseURL = getEnvString("IDENTITY_BASE_URL", identityBaseURL)
	cfg.IdentityKeySetURL = getEnvString("IDENTITY_KEYSET_URL", identityKeySetURL)
	cfg.IdentityIssuer = getEnvString("IDENTITY_ISSUER", "https://securetoken.google.com/"+cfg.IdentityProjectID)
	cfg.IdentityAudience = getEnvString("IDENTITY_AUDIENCE", cfg.IdentityProjectID)

	return cfg, nil
}

// APIBaseURL は実行モードに対応するクライアント用APIベースURLを返す。
func (c *Config) APIBaseURL() string {
	if c.Mode == ModeProduction && c.APIBaseURLProd != "" {
		return c.APIBaseURLProd
	}
	return c.APIBaseURLDev
}

// parseMode は実行モード文字列をModeに変換する。未知の値はdevelopment扱い。
func parseMode(s string) Mode {
	if s == string(ModeProduction) {
		return ModeProduction
	}
	return ModeDevelopment
}

// splitAndTrim はカンマ区切り文字列を分割し、空要素を除いて返す。
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
