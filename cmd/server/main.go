package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
	"github.com/taoyao-code/suntech-server/internal/gateway"
	"github.com/taoyao-code/suntech-server/internal/httpserver"
	"github.com/taoyao-code/suntech-server/internal/logging"
	"github.com/taoyao-code/suntech-server/internal/metrics"
	"github.com/taoyao-code/suntech-server/internal/protocol/suntech"
	"github.com/taoyao-code/suntech-server/internal/sink"
	"github.com/taoyao-code/suntech-server/internal/tcpserver"
	"github.com/taoyao-code/suntech-server/internal/tracker"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: configs/example.yaml or SUNTECH_CONFIG)")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 指标注册与处理器（路由受 metrics.enable 控制）
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	var metricsHandler http.Handler
	if cfg.Metrics.Enable {
		metricsHandler = metrics.Handler(reg)
	}

	// 4) 事件下游
	var sinks []sink.EventSink
	eventLogDir := ""
	if cfg.Sinks.File.Enabled {
		fs, err := sink.NewFileSink(cfg.Sinks.File)
		if err != nil {
			log.Fatal("file sink init error", zap.Error(err))
		}
		sinks = append(sinks, fs)
		eventLogDir = cfg.Sinks.File.Dir
	}
	if cfg.Sinks.Redis.Enabled {
		rs, err := sink.NewRedisSink(cfg.Sinks.Redis)
		if err != nil {
			log.Fatal("redis sink init error", zap.Error(err))
		}
		sinks = append(sinks, rs)
	}
	if cfg.Sinks.Postgres.Enabled {
		ps, err := sink.NewPostgresSink(context.Background(), cfg.Sinks.Postgres, log)
		if err != nil {
			log.Fatal("postgres sink init error", zap.Error(err))
		}
		sinks = append(sinks, ps)
	}
	fanout := sink.NewFanout(log, func(name string) {
		appm.SinkErrors.WithLabelValues(name).Inc()
	}, sinks...)
	defer func() { _ = fanout.Close() }()

	// 5) 解码器、会话跟踪与帧处理回调
	dec := suntech.NewDecoder(suntech.WithTargetPrefixes(cfg.Protocol.TargetPrefixes))
	trk := tracker.New(cfg.History.MessageCap, cfg.History.EventCap)
	handler := gateway.NewFrameHandler(dec, trk, fanout, appm, log)

	// 6) TCP 网关
	tcpSrv := tcpserver.New(cfg.TCP, log)
	tcpSrv.SetHandler(handler)
	tcpSrv.SetMetricsCallbacks(
		func() { appm.TCPAccepted.Inc() },
		func(n int) { appm.TCPBytesReceived.Add(float64(n)) },
		func(d int) { appm.ConnActive.Add(float64(d)) },
	)

	// 7) HTTP 查询接口，就绪与 TCP 监听器绑定
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler,
		tcpSrv.Ready, trk, eventLogDir, log)

	// 并行启动
	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()
	if err := tcpSrv.Start(); err != nil {
		log.Fatal("tcp server start error", zap.Error(err))
	}
	log.Info("suntech server started",
		zap.String("tcp", cfg.TCP.Addr),
		zap.String("http", cfg.HTTP.Addr),
		zap.Strings("target_prefixes", cfg.Protocol.TargetPrefixes))

	// 信号处理，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	_ = tcpSrv.Shutdown(ctx)
}
