package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"infusesecret/internal/constants"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 儲存驅動常數.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// 速率限制後端常數.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Config 應用程式配置結構.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Photos   PhotosConfig   `mapstructure:"photos"`
	QR       QRConfig       `mapstructure:"qr"`
	Client   ClientConfig   `mapstructure:"client"`
}

// AppConfig 應用程式基本配置.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`
}

// ServerConfig 伺服器配置.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	Timeout        int      `mapstructure:"timeout"`
	ShutdownGrace  int      `mapstructure:"shutdown_grace_seconds"`
	FrontendURL    string   `mapstructure:"frontend_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies 允許提供 X-Forwarded-For 的代理 IP/CIDR；空值表示不信任任何代理.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig 資料庫配置.
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MongoConfig MongoDB 配置.
type MongoConfig struct {
	URL                    string `mapstructure:"url"`
	Database               string `mapstructure:"database"`
	Username               string `mapstructure:"username"`
	Password               string `mapstructure:"password"`
	MaxPoolSize            uint64 `mapstructure:"max_pool_size"`
	MinPoolSize            uint64 `mapstructure:"min_pool_size"`
	MaxConnIdleTime        int    `mapstructure:"max_conn_idle_time"`
	ConnectTimeout         int    `mapstructure:"connect_timeout"`
	ServerSelectionTimeout int    `mapstructure:"server_selection_timeout"`
}

// PostgresConfig PostgreSQL 配置.
type PostgresConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒.
	ConnectTimeout  int    `mapstructure:"connect_timeout"`   // 秒.
	RunMigrations   bool   `mapstructure:"run_migrations"`
}

// RedisConfig Redis 配置.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日誌配置.
type LogConfig struct {
	RotationTimeHours int `mapstructure:"rotation_time_hours"` // 日誌輪轉時間 (小時).
	MaxAgeDays        int `mapstructure:"max_age_days"`        // 日誌保留天數.
	MaxSizeMB         int `mapstructure:"max_size_mb"`         // 單個日誌檔案最大大小 (MB).
}

// SecurityConfig 安全配置.
type SecurityConfig struct {
	Admin AdminConfig `mapstructure:"admin"`
	Audit AuditConfig `mapstructure:"audit"`
}

// AdminConfig 管理端點認證配置.
type AdminConfig struct {
	JWTEnabled bool   `mapstructure:"jwt_enabled"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	JWTIssuer  string `mapstructure:"jwt_issuer"`
	Expiration string `mapstructure:"expiration"`
}

// AuditConfig 審計配置.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LimitsConfig 限制配置.
type LimitsConfig struct {
	Request      RequestLimitsConfig `mapstructure:"request"`
	RateLimiting RateLimitingConfig  `mapstructure:"rate_limiting"`
	Message      MessageLimitsConfig `mapstructure:"message"`
	Admin        AdminLimitsConfig   `mapstructure:"admin"`
}

// RequestLimitsConfig 請求限制配置.
type RequestLimitsConfig struct {
	MaxBodySize int64 `mapstructure:"max_body_size"`
}

// RateLimitingConfig Rate Limiting 配置.
type RateLimitingConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Backend          string `mapstructure:"backend"`
	DefaultPerMinute int    `mapstructure:"default_per_minute"`
	CreatePerMinute  int    `mapstructure:"create_per_minute"`
}

// MessageLimitsConfig 訊息限制配置.
type MessageLimitsConfig struct {
	MaxLength      int `mapstructure:"max_length"`
	MaxQuoteLength int `mapstructure:"max_quote_length"`
	MaxPhotoURL    int `mapstructure:"max_photo_url_length"`
	PreviewLength  int `mapstructure:"preview_length"`
}

// AdminLimitsConfig 管理列表限制配置.
type AdminLimitsConfig struct {
	MaxListSize int `mapstructure:"max_list_size"`
}

// PhotosConfig 照片上傳 (S3 相容儲存) 配置.
type PhotosConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	BaseEndpoint   string `mapstructure:"base_endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	ExpiresMinutes int    `mapstructure:"expires_minutes"`
}

// QRConfig QR 圖片渲染端點配置.
type QRConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Size     int    `mapstructure:"size"`
}

// ClientConfig API 客戶端配置.
type ClientConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // 秒.
}

var (
	config *Config
	// ENV 當前環境變數.
	ENV string = "local"
)

// Load 載入設定檔.
func Load(testCfg ...*Config) error {
	// 如果直接傳入配置（主要用於測試），設定並驗證
	if len(testCfg) > 0 && testCfg[0] != nil {
		config = testCfg[0]
		if err := validateConfig(config); err != nil {
			return fmt.Errorf("配置驗證失敗: %w", err)
		}
		return nil
	}

	// .env 為選用檔案
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("讀取 .env 失敗: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
		baseName := filepath.Base(configPath)
		ENV = strings.TrimSuffix(baseName, filepath.Ext(baseName))
	} else {
		if env := os.Getenv("APP_ENV"); env != "" {
			ENV = env
		}
		v.SetConfigName(ENV)
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("讀取配置檔案失敗: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("配置驗證失敗: %w", err)
	}

	config = cfg
	return nil
}

// setDefaults 設定預設值，讓最小配置檔也能啟動.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "infusesecret")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.timeout", 30)
	v.SetDefault("server.shutdown_grace_seconds", 30)
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.mongo.url", "mongodb://localhost:27017")
	v.SetDefault("database.mongo.database", "infusesecret")
	v.SetDefault("database.mongo.max_pool_size", 10)
	v.SetDefault("database.mongo.connect_timeout", 10)
	v.SetDefault("database.mongo.server_selection_timeout", 5)
	v.SetDefault("database.mongo.max_conn_idle_time", 300)
	v.SetDefault("database.postgres.max_open_conns", 10)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 1800)
	v.SetDefault("database.postgres.connect_timeout", 10)
	v.SetDefault("database.postgres.run_migrations", true)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("log.rotation_time_hours", 24)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.max_size_mb", 100)

	v.SetDefault("security.admin.jwt_issuer", "infusesecret")
	v.SetDefault("security.admin.expiration", "24h")
	v.SetDefault("security.audit.enabled", true)

	v.SetDefault("limits.request.max_body_size", 1<<20)
	v.SetDefault("limits.rate_limiting.enabled", true)
	v.SetDefault("limits.rate_limiting.backend", RateLimitBackendMemory)
	v.SetDefault("limits.rate_limiting.default_per_minute", 100)
	v.SetDefault("limits.rate_limiting.create_per_minute", 30)
	v.SetDefault("limits.message.max_length", 10000)
	v.SetDefault("limits.message.max_quote_length", 255)
	v.SetDefault("limits.message.max_photo_url_length", 500)
	v.SetDefault("limits.message.preview_length", 50)
	v.SetDefault("limits.admin.max_list_size", 100)

	v.SetDefault("photos.region", "us-east-1")
	v.SetDefault("photos.expires_minutes", 15)

	v.SetDefault("qr.endpoint", "https://api.qrserver.com/v1/create-qr-code/")
	v.SetDefault("qr.size", 300)

	v.SetDefault("client.base_url", "http://localhost:3001/api")
	v.SetDefault("client.timeout", 10)
}

// bindLegacyEnv 綁定沿用的環境變數名稱.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.frontend_url", "FRONTEND_URL")
	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database.postgres.dsn", "DATABASE_URL")
	_ = v.BindEnv("database.mongo.url", "MONGO_URL")
	_ = v.BindEnv("redis.addr", "REDIS_URL")
	_ = v.BindEnv("security.admin.jwt_secret", "ADMIN_JWT_SECRET")
	_ = v.BindEnv("client.base_url", "API_URL")
}

// Get 取得設定.
func Get() *Config {
	return config
}

// SetEnv 設定環境.
func SetEnv(env string) {
	ENV = env
}

// GetEnv 取得當前環境.
func GetEnv() string {
	return ENV
}

// validateConfig 驗證配置的有效性
func validateConfig(cfg *Config) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("應用程式名稱不能為空")
	}

	if cfg.Server.Port == "" {
		return fmt.Errorf("伺服器端口不能為空")
	}
	if cfg.Server.Timeout <= 0 {
		return fmt.Errorf("伺服器超時時間必須大於 0")
	}
	if cfg.Server.FrontendURL == "" {
		return fmt.Errorf("前端網址不能為空")
	}
	for _, proxy := range cfg.Server.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("無效的信任代理: %q", proxy)
		}
	}

	switch cfg.Database.Driver {
	case DriverMongo:
		if cfg.Database.Mongo.URL == "" {
			return fmt.Errorf("MongoDB URL 不能為空")
		}
		if cfg.Database.Mongo.Database == "" {
			return fmt.Errorf("MongoDB 資料庫名稱不能為空")
		}
		if cfg.Database.Mongo.MaxPoolSize == 0 {
			return fmt.Errorf("MongoDB 最大連接池大小必須大於 0")
		}
		if cfg.Database.Mongo.MinPoolSize > cfg.Database.Mongo.MaxPoolSize {
			return fmt.Errorf("MongoDB 最小連接池大小不能大於最大連接池大小")
		}
	case DriverPostgres:
		if cfg.Database.Postgres.DSN == "" {
			return fmt.Errorf("PostgreSQL DSN 不能為空")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("不支援的資料庫驅動: %q", cfg.Database.Driver)
	}

	if cfg.Limits.RateLimiting.Enabled {
		switch cfg.Limits.RateLimiting.Backend {
		case RateLimitBackendMemory, "":
		case RateLimitBackendRedis:
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("Redis 地址不能為空")
			}
		default:
			return fmt.Errorf("不支援的速率限制後端: %q", cfg.Limits.RateLimiting.Backend)
		}
	}

	// 長度上限不可超過儲存層欄位，否則寫入會在資料庫層失敗
	msgLimits := cfg.Limits.Message
	if msgLimits.MaxQuoteLength < 0 || msgLimits.MaxQuoteLength > constants.StoredMaxQuoteLength {
		return fmt.Errorf("名言長度上限必須介於 0 與 %d 之間", constants.StoredMaxQuoteLength)
	}
	if msgLimits.MaxPhotoURL < 0 || msgLimits.MaxPhotoURL > constants.StoredMaxPhotoURL {
		return fmt.Errorf("照片網址長度上限必須介於 0 與 %d 之間", constants.StoredMaxPhotoURL)
	}

	if cfg.Security.Admin.JWTEnabled && cfg.Security.Admin.JWTSecret == "" {
		return fmt.Errorf("啟用管理端 JWT 時必須設定 jwt_secret")
	}

	if cfg.Photos.Enabled {
		if cfg.Photos.Bucket == "" {
			return fmt.Errorf("照片儲存桶名稱不能為空")
		}
		if cfg.Photos.PublicBaseURL == "" {
			return fmt.Errorf("照片公開網址不能為空")
		}
	}

	return nil
}

// IsDebug 檢查是否為除錯模式
func IsDebug() bool {
	if config != nil {
		return config.App.Debug
	}
	return false
}

// GetServerAddr 取得伺服器地址
func GetServerAddr() string {
	if config != nil {
		return fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)
	}
	return "localhost:3001"
}

// GetFrontendURL 取得前端網址（不含結尾斜線）
func GetFrontendURL() string {
	if config != nil && config.Server.FrontendURL != "" {
		return strings.TrimRight(config.Server.FrontendURL, "/")
	}
	return "http://localhost:3000"
}

// Defaults 回傳只包含預設值的配置，主要用於測試與工具程式.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("預設配置解析失敗: %v", err))
	}
	return cfg
}
