package suntech

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
)

// DecodeBCD 将 BCD 字节序列解码为十进制整数。
// 任一半字节超出 0-9 时整段按十六进制数字串回退解释——
// 部分固件变体会在名义 BCD 字段里发原始十六进制，该回退必须保留。
func DecodeBCD(b []byte) uint64 {
	var result uint64
	for _, by := range b {
		hi := (by >> 4) & 0x0F
		lo := by & 0x0F
		if hi > 9 || lo > 9 {
			return hexFallback(b)
		}
		result = result*100 + uint64(hi)*10 + uint64(lo)
	}
	return result
}

func hexFallback(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	v, err := strconv.ParseUint(hex.EncodeToString(b), 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// bcdByte 单字节按半字节十进制展开；不校验半字节范围，缺字节按 0 处理。
func bcdByte(b byte) int {
	return int((b>>4)&0x0F)*10 + int(b&0x0F)
}

// DecodeDate 解码 3 字节 BCD 日期（YY MM DD）为 YYYYMMDD，年份基准 2000。
func DecodeDate(b []byte) string {
	var y, m, d byte
	if len(b) > 0 {
		y = b[0]
	}
	if len(b) > 1 {
		m = b[1]
	}
	if len(b) > 2 {
		d = b[2]
	}
	return fmt.Sprintf("%04d%02d%02d", 2000+bcdByte(y), bcdByte(m), bcdByte(d))
}

// DecodeTime 解码 3 字节 BCD 时间（HH MM SS）为 HH:MM:SS。
func DecodeTime(b []byte) string {
	var h, m, s byte
	if len(b) > 0 {
		h = b[0]
	}
	if len(b) > 1 {
		m = b[1]
	}
	if len(b) > 2 {
		s = b[2]
	}
	return fmt.Sprintf("%02d:%02d:%02d", bcdByte(h), bcdByte(m), bcdByte(s))
}

// DecodeCoordinate 4 字节大端有符号整数除以 1e6 得到十进制度坐标。
func DecodeCoordinate(b []byte) float64 {
	if len(b) < 4 {
		return 0
	}
	return float64(int32(binary.BigEndian.Uint32(b[:4]))) / 1_000_000.0
}

// DecodeSpeed 2 字节大端无符号整数除以 100（km/h）。
func DecodeSpeed(b []byte) float64 {
	return decodeCenti(b)
}

// DecodeCourse 2 字节大端无符号整数除以 100（度）。
func DecodeCourse(b []byte) float64 {
	return decodeCenti(b)
}

func decodeCenti(b []byte) float64 {
	if len(b) < 2 {
		return 0
	}
	return float64(binary.BigEndian.Uint16(b[:2])) / 100.0
}
