package tcpserver

import (
	"context"
	"testing"
	"time"
)

func TestConnectionLimiter_BlocksAtCapacity(t *testing.T) {
	limiter := NewConnectionLimiter(3, 1*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d failed: %v", i+1, err)
		}
	}
	if limiter.Current() != 3 {
		t.Fatalf("current = %d", limiter.Current())
	}

	// 第 4 个在超时后被拒绝
	ctx4, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx4); err == nil {
		t.Fatal("acquire beyond capacity should fail")
	}

	// 归还一个后恢复可用
	limiter.Release()
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestConnectionLimiter_ExtraReleaseIgnored(t *testing.T) {
	limiter := NewConnectionLimiter(2, time.Second)
	limiter.Release()
	if limiter.Current() != 0 {
		t.Fatalf("current after stray release = %d", limiter.Current())
	}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	limiter := NewRateLimiter(10, 20)

	for i := 0; i < 20; i++ {
		if !limiter.Allow() {
			t.Fatalf("burst request %d rejected", i+1)
		}
	}
	if limiter.Allow() {
		t.Fatal("request beyond burst should be rejected")
	}

	// 每秒 10 个，150ms 后至少补充一个令牌
	time.Sleep(150 * time.Millisecond)
	if !limiter.Allow() {
		t.Fatal("request after refill should pass")
	}
}
