// Package store 提供有界 FIFO 历史缓冲。
package store

// Ring 固定容量环形缓冲，写满后覆盖最旧条目。
// 本身不加锁，由持有者统一同步。
type Ring[T any] struct {
	buf  []T
	head int
	size int
}

// NewRing 创建容量为 capacity 的环形缓冲；capacity 必须大于 0。
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("store: ring capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Append 追加一个条目，必要时挤掉最旧的。
func (r *Ring[T]) Append(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len 当前条目数。
func (r *Ring[T]) Len() int { return r.size }

// Cap 固定容量。
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Snapshot 按从旧到新的顺序拷贝全部条目。
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
