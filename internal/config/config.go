package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig HTTP 查询接口配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// TCPConfig TCP 接入网关配置
type TCPConfig struct {
	Addr           string        `mapstructure:"addr"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	MaxConnections int           `mapstructure:"maxConnections"`
	AcceptRate     float64       `mapstructure:"acceptRate"`
	AcceptBurst    int           `mapstructure:"acceptBurst"`
	ReadBufferSize int           `mapstructure:"readBufferSize"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// ProtocolConfig 协议解码配置。TargetPrefixes 是信标目标厂商前缀，
// 属外部配置事实，改动它不改变解码语义。
type ProtocolConfig struct {
	TargetPrefixes []string `mapstructure:"targetPrefixes"`
}

// HistoryConfig 两个有界历史环的容量
type HistoryConfig struct {
	MessageCap int `mapstructure:"messageCap"`
	EventCap   int `mapstructure:"eventCap"`
}

// FileSinkConfig 按天 NDJSON 事件日志
type FileSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// RedisSinkConfig Redis 事件队列
type RedisSinkConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Key          string        `mapstructure:"key"`
	MaxLen       int64         `mapstructure:"maxLen"`
}

// PostgresSinkConfig PostgreSQL 事件归档
type PostgresSinkConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// SinksConfig 事件下游配置。所有 sink 均可选，关闭任一 sink
// 不影响解码与会话状态的正确性。
type SinksConfig struct {
	File     FileSinkConfig     `mapstructure:"file"`
	Redis    RedisSinkConfig    `mapstructure:"redis"`
	Postgres PostgresSinkConfig `mapstructure:"postgres"`
}

// Config 顶层配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	TCP      TCPConfig      `mapstructure:"tcp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	History  HistoryConfig  `mapstructure:"history"`
	Sinks    SinksConfig    `mapstructure:"sinks"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 SUNTECH_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("SUNTECH_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	// 默认值
	setDefaults(v)

	// 环境变量覆盖：前缀 SUNTECH_，并将点号替换为下划线
	v.SetEnvPrefix("SUNTECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if fmt.Sprintf("%T", err) != fmt.Sprintf("%T", notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.History.MessageCap <= 0 {
		return fmt.Errorf("history.messageCap must be positive, got %d", c.History.MessageCap)
	}
	if c.History.EventCap <= 0 {
		return fmt.Errorf("history.eventCap must be positive, got %d", c.History.EventCap)
	}
	if len(c.Protocol.TargetPrefixes) == 0 {
		return fmt.Errorf("protocol.targetPrefixes must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "suntech-server")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("tcp.addr", ":18160")
	v.SetDefault("tcp.idleTimeout", "60s")
	v.SetDefault("tcp.writeTimeout", "10s")
	v.SetDefault("tcp.maxConnections", 5000)
	v.SetDefault("tcp.acceptRate", 200.0)
	v.SetDefault("tcp.acceptBurst", 400)
	v.SetDefault("tcp.readBufferSize", 4096)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/suntech-server.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("protocol.targetPrefixes", []string{"AC233F", "C30000"})

	v.SetDefault("history.messageCap", 1000)
	v.SetDefault("history.eventCap", 10000)

	v.SetDefault("sinks.file.enabled", true)
	v.SetDefault("sinks.file.dir", "logs/events")

	v.SetDefault("sinks.redis.enabled", false)
	v.SetDefault("sinks.redis.addr", "localhost:6379")
	v.SetDefault("sinks.redis.db", 0)
	v.SetDefault("sinks.redis.poolSize", 10)
	v.SetDefault("sinks.redis.dialTimeout", "5s")
	v.SetDefault("sinks.redis.readTimeout", "3s")
	v.SetDefault("sinks.redis.writeTimeout", "3s")
	v.SetDefault("sinks.redis.key", "suntech:beacon-events")
	v.SetDefault("sinks.redis.maxLen", 10000)

	v.SetDefault("sinks.postgres.enabled", false)
	v.SetDefault("sinks.postgres.table", "beacon_events")
	v.SetDefault("sinks.postgres.maxOpenConns", 10)
	v.SetDefault("sinks.postgres.maxIdleConns", 2)
	v.SetDefault("sinks.postgres.connMaxLifetime", "1h")
}
