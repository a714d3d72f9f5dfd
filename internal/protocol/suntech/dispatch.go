package suntech

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Decoder 帧分发器：按首字节路由到对应解码器。
// 目标前缀集与时钟都可注入，解码本身是纯计算，不做任何 I/O。
type Decoder struct {
	prefixes []string
	now      func() time.Time
}

// Option Decoder 构造选项。
type Option func(*Decoder)

// WithTargetPrefixes 替换目标标签前缀集（外部配置事实）。
func WithTargetPrefixes(prefixes []string) Option {
	return func(d *Decoder) {
		if len(prefixes) > 0 {
			d.prefixes = prefixes
		}
	}
}

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDecoder 创建分发器，默认前缀集与真实时钟。
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{prefixes: DefaultTargetPrefixes, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TargetPrefixes 返回生效的目标前缀集。
func (d *Decoder) TargetPrefixes() []string {
	return d.prefixes
}

// Dispatch 按首字节路由。对任意输入（含全部 256 个首字节与空帧）
// 都恰好返回一个报告变体，绝不 panic，没有帧被无声丢弃。
// 传入切片会被复制，调用方可以继续复用底层缓冲。
func (d *Decoder) Dispatch(frame []byte) Report {
	data := append([]byte(nil), frame...)

	if len(data) == 0 {
		return &ParseErrorReport{
			Timestamp:  d.now(),
			Reason:     ErrEmptyFrame.Error(),
			RawHex:     "",
			ByteLength: 0,
			raw:        data,
		}
	}

	switch data[0] {
	case HeaderStatus:
		rep, err := d.DecodeStatus(data)
		if err != nil {
			return d.parseError(fmt.Sprintf("STT parse error: %v", err), data)
		}
		return rep
	case HeaderStatusVariant:
		// 0x82 变体沿用 STT 解码；失败时不上抛，按带原始字节的
		// 未知头部形态返回并标记 STT Variant
		rep, err := d.DecodeStatus(data)
		if err != nil {
			return &UnknownHeaderReport{
				Timestamp:  d.now(),
				HeaderByte: data[0],
				Note:       "STT Variant",
				RawHex:     hexLower(data),
				raw:        data,
			}
		}
		return rep
	case HeaderBeaconScan, HeaderBeaconScanAck:
		rep, err := d.DecodeBeaconScan(data)
		if err != nil {
			return d.parseError(fmt.Sprintf("BDA parse error: %v", err), data)
		}
		return rep
	default:
		return &UnknownHeaderReport{
			Timestamp:  d.now(),
			HeaderByte: data[0],
			Note:       fmt.Sprintf("Unknown Header: 0x%02X", data[0]),
			RawHex:     hexLower(data),
			raw:        data,
		}
	}
}

func (d *Decoder) parseError(reason string, data []byte) *ParseErrorReport {
	return &ParseErrorReport{
		Timestamp:  d.now(),
		Reason:     reason,
		RawHex:     hexLower(data),
		ByteLength: len(data),
		raw:        data,
	}
}

func hexLower(b []byte) string {
	return hex.EncodeToString(b)
}
