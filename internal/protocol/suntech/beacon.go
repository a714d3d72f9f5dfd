package suntech

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// beaconMinLen 必需前缀：共享头部..2 字节期望传感器数。
const beaconMinLen = 20

// DecodeBeaconScan 解码 BDA/SNB 信标扫描上报。
// 传感器提取分两遍，结果进入同一个按归一化地址去重的列表：
//  1. 结构化遍历 {size:2, payload, mac:6, rssi:1}，缓冲不足即止，残缺条目丢弃；
//  2. 全帧 6 字节滑窗重扫，双字节序探测目标前缀。
//
// 发送固件并不总是把信标记录对齐到结构化布局，目标地址有时只能靠
// 穷举整帧找到；滑窗是刻意的暴力兜底，帧长只有几百字节，不做优化。
// 传感器解析的不完整或歧义永远不会使整帧解码失败。
func (d *Decoder) DecodeBeaconScan(data []byte) (*BeaconScanReport, error) {
	if len(data) < beaconMinLen {
		return nil, fmt.Errorf("%w: ble frame %d bytes", ErrTruncated, len(data))
	}

	hdr := data[0]
	pktLen := binary.BigEndian.Uint16(data[1:3])
	devID := DecodeBCD(data[3:8])
	model := data[11]
	swVer := formatSoftwareVersion(data[12:15])
	scanStatus := data[15]
	totalNo := data[16]
	currNo := data[17]
	senCnt := binary.BigEndian.Uint16(data[18:20])

	rep := &BeaconScanReport{
		Timestamp:           d.now(),
		ReportType:          "BDA/SNB (BLE Sensor Data Report)",
		Header:              headerLabel(hdr),
		DeviceID:            devID,
		PacketLength:        pktLen,
		ModelID:             model,
		SoftwareVersion:     swVer,
		ScanStatus:          scanStatusLabel(scanStatus),
		TotalReports:        totalNo,
		CurrentReport:       currNo,
		ExpectedSensorCount: senCnt,
		Sensors:             []SensorSighting{},
		RawHex:              hexLower(data),
		raw:                 data,
	}

	// 扫描时间与起点坐标均为可选：任一缺失只降级输出，不中止解码
	r := newFieldReader(data, beaconMinLen)
	var date, clock string
	if r.has(3) {
		date = DecodeDate(r.take(3))
	}
	if r.has(3) {
		clock = DecodeTime(r.take(3))
	}
	if date != "" && clock != "" {
		rep.TimestampGPS = date + " " + clock
	}
	if r.has(8) {
		lat := DecodeCoordinate(r.take(4))
		lon := DecodeCoordinate(r.take(4))
		rep.ScanLocation = &ScanLocation{Latitude: lat, Longitude: lon}
	}

	seen := make(map[string]bool)

	// 第一遍：结构化条目
	for i := 0; i < int(senCnt); i++ {
		if !r.has(2) {
			break
		}
		size := int(binary.BigEndian.Uint16(r.buf[r.pos : r.pos+2]))
		if !r.has(2 + size + 7) {
			break
		}
		r.take(2)
		payload := r.take(size)
		macPos := r.pos
		mac := r.take(6)
		rssiByte := r.u8()

		m := ResolveMAC(mac, d.prefixes)
		if m.Hex == "" || seen[m.Hex] {
			continue
		}
		seen[m.Hex] = true
		s := SensorSighting{
			MACAddress:   m.Address,
			Orientation:  m.Orientation,
			RSSI:         int(int8(rssiByte)),
			RSSIHex:      fmt.Sprintf("0x%02X", rssiByte),
			IsTarget:     m.IsTarget,
			BytePosition: macPos,
			RawPayload:   hex.EncodeToString(payload),
		}
		if lvl, ok := batteryFromPayload(payload); ok {
			s.BatteryLevel = &lvl
		}
		rep.Sensors = append(rep.Sensors, s)
	}

	// 第二遍：全帧滑窗重扫，只登记命中目标前缀的窗口。
	// 两遍对同一地址以不同方向命中时，先登记者胜出（与上游观测一致）。
	for off := 0; off+6 <= len(data); off++ {
		m := ResolveMAC(data[off:off+6], d.prefixes)
		if !m.IsTarget || seen[m.Hex] {
			continue
		}
		seen[m.Hex] = true
		s := SensorSighting{
			MACAddress:   m.Address,
			Orientation:  m.Orientation,
			IsTarget:     true,
			BytePosition: off,
		}
		if off+6 < len(data) {
			s.RSSI = int(int8(data[off+6]))
			s.RSSIHex = fmt.Sprintf("0x%02X", data[off+6])
		}
		rep.Sensors = append(rep.Sensors, s)
	}

	rep.SensorsParsed = len(rep.Sensors)
	for _, s := range rep.Sensors {
		if s.IsTarget {
			rep.HasTargetMAC = true
			break
		}
	}
	return rep, nil
}

func scanStatusLabel(s byte) string {
	if s == 1 {
		return "Scan Performed (1)"
	}
	return "No Scan (0)"
}

// batteryFromPayload 从 Minew 风格服务数据（A1 08 <pct>）提取电量百分比。
func batteryFromPayload(p []byte) (int, bool) {
	for i := 0; i+2 < len(p); i++ {
		if p[i] == 0xA1 && p[i+1] == 0x08 && p[i+2] <= 100 {
			return int(p[i+2]), true
		}
	}
	return 0, false
}
