package sink

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

// 表名只允许常规标识符，表名来自配置且无法参数化绑定
var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresSink 事件落库归档，仅插入。event_id 冲突静默跳过，
// 上游重放不会造成重复行。
type PostgresSink struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSink 建连接池、建表（如缺失）并探活。
func NewPostgresSink(ctx context.Context, cfg cfgpkg.PostgresSinkConfig, logger *zap.Logger) (*PostgresSink, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("postgres sink is not enabled")
	}
	if !validTableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if logger != nil {
		pc.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   &pgxZapLogger{logger: logger},
			LogLevel: tracelog.LogLevelWarn,
		}
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresSink{pool: pool, table: cfg.Table}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) ensureTable(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		event_id           TEXT PRIMARY KEY,
		ts                 TIMESTAMPTZ NOT NULL,
		mac_id             TEXT NOT NULL,
		ignition_status    TEXT NOT NULL,
		latitude           DOUBLE PRECISION,
		longitude          DOUBLE PRECISION,
		frequency_seconds  DOUBLE PRECISION,
		input_voltage_mv   INTEGER,
		sensor_count       INTEGER NOT NULL DEFAULT 0,
		rssi               INTEGER,
		battery_level      INTEGER,
		previous_status    TEXT,
		new_status         TEXT,
		is_ignition_change BOOLEAN NOT NULL DEFAULT FALSE,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, s.table)
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, ev tracker.Event) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(event_id, ts, mac_id, ignition_status, latitude, longitude, frequency_seconds,
		 input_voltage_mv, sensor_count, rssi, battery_level, previous_status, new_status, is_ignition_change)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (event_id) DO NOTHING`, s.table)
	_, err := s.pool.Exec(ctx, q,
		ev.ID, ev.Timestamp, ev.MACID, ev.IgnitionStatus,
		ev.Latitude, ev.Longitude, ev.FrequencySeconds,
		ev.InputVoltageMV, ev.SensorCount, ev.RSSI, ev.BatteryLevel,
		nullable(ev.PreviousStatus), nullable(ev.NewStatus), ev.IsIgnitionChange)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// pgxZapLogger 把 pgx 日志适配到 zap
type pgxZapLogger struct {
	logger *zap.Logger
}

func (l *pgxZapLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		l.logger.Debug(msg, fields...)
	case tracelog.LogLevelInfo:
		l.logger.Info(msg, fields...)
	case tracelog.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	case tracelog.LogLevelError:
		l.logger.Error(msg, fields...)
	default:
		l.logger.Info(msg, fields...)
	}
}
