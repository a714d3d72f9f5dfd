package tcpserver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// ConnectionLimiter 并发连接数上限，信号量实现。
// 接入层在 Accept 后拿许可，连接退出时归还。
type ConnectionLimiter struct {
	sem         chan struct{}
	timeout     time.Duration
	maxConn     int
	activeCount atomic.Int64
}

// NewConnectionLimiter 创建连接限流器。
// timeout 是等待许可的最长时间，超时即拒绝接入。
func NewConnectionLimiter(maxConn int, timeout time.Duration) *ConnectionLimiter {
	if maxConn <= 0 {
		maxConn = 10000
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &ConnectionLimiter{
		sem:     make(chan struct{}, maxConn),
		timeout: timeout,
		maxConn: maxConn,
	}
}

// Acquire 获取连接许可，满则等到 timeout 后报错
func (l *ConnectionLimiter) Acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	select {
	case l.sem <- struct{}{}:
		l.activeCount.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection limit exceeded: max=%d", l.maxConn)
	}
}

// Release 归还连接许可
func (l *ConnectionLimiter) Release() {
	select {
	case <-l.sem:
		l.activeCount.Add(-1)
	default:
		// 重复 Release 不计数
	}
}

// Current 当前持有许可的连接数
func (l *ConnectionLimiter) Current() int {
	return int(l.activeCount.Load())
}
