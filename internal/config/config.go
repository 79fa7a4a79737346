package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Tokens     TokensConfig     `mapstructure:"tokens"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	ModelSync  ModelSyncConfig  `mapstructure:"modelsync"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Addr          string   `mapstructure:"addr"`
	Mode          string   `mapstructure:"mode"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	FrontendURL   string   `mapstructure:"frontend_url"`
	SecureCookies bool     `mapstructure:"secure_cookies"`

	// 可信任 X-Forwarded-For 的來源 IP 或 CIDR；空的話只看連線位址
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type OpenRouterConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	FallbackModel string `mapstructure:"fallback_model"`
	AppURL        string `mapstructure:"app_url"`
	AppTitle      string `mapstructure:"app_title"`
}

type ChatConfig struct {
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

type TokensConfig struct {
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type OAuthConfig struct {
	Google OAuthProviderConfig `mapstructure:"google"`
	GitHub OAuthProviderConfig `mapstructure:"github"`
}

type WorkerConfig struct {
	Count int `mapstructure:"count"`
}

type ModelSyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// defaults also registers every key so that AutomaticEnv can override it.
var defaults = map[string]any{
	"server.addr":                ":8080",
	"server.mode":                "release",
	"server.cors_origins":        []string{"http://localhost:3000"},
	"server.frontend_url":        "http://localhost:3000",
	"server.secure_cookies":      false,
	"server.trusted_proxies":     []string{},
	"database.url":               "",
	"redis.addr":                 "",
	"redis.password":             "",
	"redis.db":                   0,
	"session.secret":             "",
	"session.ttl":                "168h",
	"openrouter.api_key":         "",
	"openrouter.base_url":        "https://openrouter.ai/api/v1",
	"openrouter.fallback_model":  "meta-llama/llama-3.2-3b-instruct:free",
	"openrouter.app_url":         "",
	"openrouter.app_title":       "EduLearn",
	"chat.rate_limit":            20,
	"chat.rate_window":           "1m",
	"tokens.cache_ttl":           "30s",
	"tokens.cache_size":          10000,
	"oauth.google.client_id":     "",
	"oauth.google.client_secret": "",
	"oauth.google.redirect_url":  "",
	"oauth.github.client_id":     "",
	"oauth.github.client_secret": "",
	"oauth.github.redirect_url":  "",
	"worker.count":               1,
	"modelsync.interval":         "6h",
	"logger.level":               "info",
	"logger.format":              "text",
	"logger.output":              "stdout",
}

// Load reads configs/settings.yml when present and lets environment variables
// override any key (database.url -> DATABASE_URL).
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if len(paths) == 0 {
		paths = []string{"./configs", "/configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate returns an error naming the first missing or invalid key.
func (c *Config) Validate() error {
	switch {
	case c.Database.URL == "":
		return fmt.Errorf("database.url is required")
	case c.Redis.Addr == "":
		return fmt.Errorf("redis.addr is required")
	case len(c.Session.Secret) < 16:
		return fmt.Errorf("session.secret must be at least 16 bytes")
	case c.Session.TTL <= 0:
		return fmt.Errorf("session.ttl must be positive")
	case c.Chat.RateLimit <= 0 || c.Chat.RateWindow <= 0:
		return fmt.Errorf("chat.rate_limit and chat.rate_window must be positive")
	case c.Tokens.CacheTTL < 0:
		return fmt.Errorf("tokens.cache_ttl must not be negative")
	case c.Tokens.CacheSize < 0:
		return fmt.Errorf("tokens.cache_size must not be negative")
	case c.ModelSync.Interval < 0:
		return fmt.Errorf("modelsync.interval must not be negative")
	}
	if _, err := c.Server.TrustedNets(); err != nil {
		return err
	}
	switch c.Logger.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logger.format must be text or json")
	}
	return nil
}

// TrustedNets parses server.trusted_proxies. A bare IP becomes a single-host range.
func (s ServerConfig) TrustedNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(s.TrustedProxies))
	for _, p := range s.TrustedProxies {
		p = strings.TrimSpace(p)
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("server.trusted_proxies: invalid address %q", p)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			p = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}
