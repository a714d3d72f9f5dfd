package tcpserver

import "golang.org/x/time/rate"

// RateLimiter 接入速率闸门，令牌桶实现。突发设备风暴时
// 多出的连接直接拒绝，而不是排队压垮 accept 循环。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter 创建速率限流器：每秒 ratePerSec 个，突发上限 burst
func NewRateLimiter(ratePerSec int, burst int) *RateLimiter {
	if ratePerSec <= 0 {
		ratePerSec = 100
	}
	if burst <= 0 {
		burst = ratePerSec * 2
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Allow 非阻塞判定是否放行本次接入
func (l *RateLimiter) Allow() bool {
	return l.limiter.Allow()
}
