package suntech

import "encoding/binary"

// fieldReader 在帧上顺序取字段。缓冲耗尽后所有取值返回零值，
// 把"逐字段降级、绝不中途报错"的契约落在类型层面而不是控制流里。
type fieldReader struct {
	buf []byte
	pos int
}

func newFieldReader(buf []byte, pos int) *fieldReader {
	if pos > len(buf) {
		pos = len(buf)
	}
	return &fieldReader{buf: buf, pos: pos}
}

func (r *fieldReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *fieldReader) has(n int) bool {
	return r.remaining() >= n
}

// take 取走 n 字节；不足时返回 nil 且不移动游标。
func (r *fieldReader) take(n int) []byte {
	if !r.has(n) {
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *fieldReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *fieldReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *fieldReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}
