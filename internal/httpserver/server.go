package httpserver

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

// Server HTTP 服务封装
type Server struct {
	srv *http.Server
}

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// New 创建并配置 Gin + HTTP Server，注册查询、健康检查与指标路由。
// eventLogDir 为空时日志查询路由返回 404。
func New(
	cfg cfgpkg.HTTPConfig,
	metricsPath string,
	metricsHandler http.Handler,
	readyFn func() bool,
	trk *tracker.Tracker,
	eventLogDir string,
	logger *zap.Logger,
) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if readyFn == nil || readyFn() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	api.GET("/messages", func(c *gin.Context) {
		msgs := trk.Messages()
		out := make([]interface{}, len(msgs))
		for i, m := range msgs {
			out[i] = m
		}
		c.JSON(http.StatusOK, gin.H{"count": len(out), "messages": out})
	})
	api.GET("/beacon-scans", func(c *gin.Context) {
		events := trk.Events()
		c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
	})
	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, trk.StateSnapshot())
	})

	api.GET("/logs", func(c *gin.Context) {
		if eventLogDir == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "file sink disabled"})
			return
		}
		entries, err := os.ReadDir(eventLogDir)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event log dir unavailable"})
			return
		}
		var days []string
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, "beacon-events-") && strings.HasSuffix(name, ".log") {
				days = append(days, strings.TrimSuffix(strings.TrimPrefix(name, "beacon-events-"), ".log"))
			}
		}
		sort.Strings(days)
		c.JSON(http.StatusOK, gin.H{"days": days})
	})
	api.GET("/logs/:day", func(c *gin.Context) {
		day := c.Param("day")
		// 路径片段来自外部输入，先过格式再拼路径
		if eventLogDir == "" || !dayPattern.MatchString(day) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such log"})
			return
		}
		path := filepath.Join(eventLogDir, "beacon-events-"+day+".log")
		data, err := os.ReadFile(path)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such log"})
			return
		}
		c.Data(http.StatusOK, "application/x-ndjson", data)
	})

	dashboard := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
	}
	r.GET("/", dashboard)
	r.GET("/table.html", dashboard)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	logger.Info("http server configured", zap.String("addr", cfg.Addr))
	return &Server{srv: srv}
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
