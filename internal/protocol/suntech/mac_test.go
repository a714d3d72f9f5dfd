package suntech

import "testing"

func TestResolveMAC_BigEndianMatch(t *testing.T) {
	m := ResolveMAC([]byte{0xAC, 0x23, 0x3F, 0x5E, 0x2B, 0x3C}, DefaultTargetPrefixes)
	if !m.IsTarget || m.Orientation != OrientationBig {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Address != "AC:23:3F:5E:2B:3C" || m.Hex != "AC233F5E2B3C" {
		t.Fatalf("unexpected address: %+v", m)
	}
}

func TestResolveMAC_LittleEndianMatch(t *testing.T) {
	// 反转后命中 AC233F 前缀
	m := ResolveMAC([]byte{0x3C, 0x2B, 0x5E, 0x3F, 0x23, 0xAC}, DefaultTargetPrefixes)
	if !m.IsTarget || m.Orientation != OrientationLittle {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Address != "AC:23:3F:5E:2B:3C" {
		t.Fatalf("unexpected address: %s", m.Address)
	}
}

func TestResolveMAC_NoMatchDefaultsBig(t *testing.T) {
	m := ResolveMAC([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, DefaultTargetPrefixes)
	if m.IsTarget {
		t.Fatalf("should not be target: %+v", m)
	}
	if m.Orientation != OrientationBig || m.Address != "01:02:03:04:05:06" {
		t.Fatalf("unexpected default resolution: %+v", m)
	}
}

func TestResolveMAC_PrefixCaseInsensitive(t *testing.T) {
	m := ResolveMAC([]byte{0xC3, 0x00, 0x00, 0x40, 0x08, 0x9D}, []string{"c30000"})
	if !m.IsTarget {
		t.Fatalf("lowercase prefix should match: %+v", m)
	}
}

func TestResolveMAC_ShortWindow(t *testing.T) {
	m := ResolveMAC([]byte{0xAC, 0x23}, DefaultTargetPrefixes)
	if m.IsTarget || m.Address != "" {
		t.Fatalf("short window must resolve to empty non-target: %+v", m)
	}
}
