package suntech

import (
	"encoding/hex"
	"strings"
)

// MAC 字节序标记。
const (
	OrientationBig    = "big"
	OrientationLittle = "little"
)

// DefaultTargetPrefixes 已知资产标签的厂商地址前缀。
// 可通过配置替换，替换不改变解码语义。
var DefaultTargetPrefixes = []string{"AC233F", "C30000"}

// MACMatch 6 字节窗口的字节序消解结果。
type MACMatch struct {
	Address     string // 冒号分隔、大写
	Hex         string // 12 位十六进制，去重键
	Orientation string
	IsTarget    bool
}

// ResolveMAC 对 6 字节窗口同时计算大端与字节反转两种渲染，
// 逐一与目标前缀比对；命中即按该方向归一化，都未命中时默认大端。
// 发送固件对内嵌 MAC 的字节序并不一致，消解必须双向探测。
func ResolveMAC(window []byte, prefixes []string) MACMatch {
	if len(window) < 6 {
		return MACMatch{Orientation: OrientationBig}
	}
	be := strings.ToUpper(hex.EncodeToString(window[:6]))
	rev := make([]byte, 6)
	for i := 0; i < 6; i++ {
		rev[i] = window[5-i]
	}
	le := strings.ToUpper(hex.EncodeToString(rev))

	for _, p := range prefixes {
		p = strings.ToUpper(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(be, p) {
			return MACMatch{Address: formatMAC(be), Hex: be, Orientation: OrientationBig, IsTarget: true}
		}
		if strings.HasPrefix(le, p) {
			return MACMatch{Address: formatMAC(le), Hex: le, Orientation: OrientationLittle, IsTarget: true}
		}
	}
	return MACMatch{Address: formatMAC(be), Hex: be, Orientation: OrientationBig, IsTarget: false}
}

// formatMAC 12 位十六进制转冒号分隔形式。
func formatMAC(hex12 string) string {
	var sb strings.Builder
	for i := 0; i < len(hex12); i += 2 {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(hex12[i : i+2])
	}
	return sb.String()
}
