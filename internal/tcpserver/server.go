package tcpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
)

// Server 设备接入 TCP 网关。每个连接一个 goroutine，每次 Read 视为
// 一个完整帧交给 handler，处理完毕后把收到的原始字节原样回写——
// 硬件把回显当作传输层确认，解码成败都要回。
type Server struct {
	cfg     cfgpkg.TCPConfig
	logger  *zap.Logger
	ln      net.Listener
	wg      sync.WaitGroup
	stopC   chan struct{}
	started atomic.Bool
	handler func([]byte)

	connLimiter *ConnectionLimiter
	rateLimiter *RateLimiter

	// 可选指标回调
	onAccept    func()
	onRecvBytes func(n int)
	onConnDelta func(d int)
}

// New 创建 TCP 网关
func New(cfg cfgpkg.TCPConfig, logger *zap.Logger) *Server {
	return &Server{
		cfg:         cfg,
		logger:      logger,
		stopC:       make(chan struct{}),
		connLimiter: NewConnectionLimiter(cfg.MaxConnections, 5*time.Second),
		rateLimiter: NewRateLimiter(int(cfg.AcceptRate), cfg.AcceptBurst),
	}
}

// SetHandler 设置上行报文处理回调（raw bytes）。
// handler 在回显之前被调用，必须是纯内存计算，不得阻塞在 I/O 上。
func (s *Server) SetHandler(h func([]byte)) { s.handler = h }

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept func(), onRecvBytes func(int), onConnDelta func(int)) {
	s.onAccept, s.onRecvBytes, s.onConnDelta = onAccept, onRecvBytes, onConnDelta
}

// Addr 实际监听地址，配置 ":0" 时测试用
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start 监听并接受连接（非阻塞，内部 goroutine）
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.started.Store(true)
	s.logger.Info("tcp gateway listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			// 短暂错误等待后重试
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !s.rateLimiter.Allow() {
			s.logger.Warn("accept rate exceeded, dropping connection",
				zap.String("remote", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}
		if err := s.connLimiter.Acquire(context.Background()); err != nil {
			s.logger.Warn("connection limit reached, dropping connection",
				zap.String("remote", conn.RemoteAddr().String()),
				zap.Int("active", s.connLimiter.Current()),
				zap.Error(err))
			conn.Close()
			continue
		}

		if s.onAccept != nil {
			s.onAccept()
		}
		if s.onConnDelta != nil {
			s.onConnDelta(1)
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn 单连接读循环。60 秒无数据即关闭连接并退出；
// 连接间相互独立，任何一条的失败不影响其它连接。
func (s *Server) serveConn(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		c.Close()
		s.connLimiter.Release()
		if s.onConnDelta != nil {
			s.onConnDelta(-1)
		}
	}()

	remote := c.RemoteAddr().String()
	s.logger.Info("device connected", zap.String("remote", remote))

	bufSize := s.cfg.ReadBufferSize
	if bufSize <= 0 {
		bufSize = 4096
	}
	buf := make([]byte, bufSize)
	for {
		_ = c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		n, err := c.Read(buf)
		if n > 0 {
			if s.onRecvBytes != nil {
				s.onRecvBytes(n)
			}
			if s.handler != nil {
				s.handler(buf[:n])
			}
			// 原样回显作为确认
			_ = c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if _, werr := c.Write(buf[:n]); werr != nil {
				s.logger.Warn("echo write failed", zap.String("remote", remote), zap.Error(werr))
				return
			}
		}
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				s.logger.Info("idle timeout, closing connection", zap.String("remote", remote))
			case errors.Is(err, io.EOF):
				s.logger.Info("device disconnected", zap.String("remote", remote))
			default:
				s.logger.Warn("read failed", zap.String("remote", remote), zap.Error(err))
			}
			return
		}
	}
}

// Ready 监听器已启动且尚未进入关闭流程，就绪检查用
func (s *Server) Ready() bool {
	return s.started.Load()
}

// Shutdown 优雅关闭监听并等待连接退出
func (s *Server) Shutdown(ctx context.Context) error {
	s.started.Store(false)
	close(s.stopC)
	if s.ln != nil {
		_ = s.ln.Close()
	}
	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
