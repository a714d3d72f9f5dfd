package suntech

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// 协议首字节。0x81/0x82 状态上报，0xAA/0xBA 信标扫描上报，
// 0xBA 名义上需要传输层确认，解码路径与 0xAA 相同。
const (
	HeaderStatus        = 0x81
	HeaderStatusVariant = 0x82
	HeaderBeaconScan    = 0xAA
	HeaderBeaconScanAck = 0xBA
)

var (
	// ErrEmptyFrame 空帧，未做任何头部检查。
	ErrEmptyFrame = errors.New("empty message")
	// ErrTruncated 必需前导字段不完整；此后的可选字段才适用逐字段降级。
	ErrTruncated = errors.New("truncated required field")
)

// STT 固定布局长度。statusMinLen 覆盖头部..消息类型的必需前缀，
// 其后的所有字段按剩余缓冲逐个降级为零值。
const (
	statusMinLen   = 16
	statusFixedLen = 58
)

// 输入电压的物理可信区间（毫伏）。该供电系统不可能越出 10-20V，
// 越界值意味着字段错位，按缺失处理而不是截断。
const (
	voltageMinMV = 10000
	voltageMaxMV = 20000
)

// assignPowerVoltage 分配位图中电源电压自定义尾部字段的标志位。
const assignPowerVoltage = 0x00000001

// DecodeStatus 解码 STT 状态上报。必需前缀不足返回 ErrTruncated，
// 之后的截断一律降级为默认值，不再产生错误。
func (d *Decoder) DecodeStatus(data []byte) (*StatusReport, error) {
	if len(data) < statusMinLen {
		return nil, fmt.Errorf("%w: stt frame %d bytes", ErrTruncated, len(data))
	}

	hdr := data[0]
	pktLen := binary.BigEndian.Uint16(data[1:3])
	devID := DecodeBCD(data[3:8])
	// data[8:11] 为上报位图，当前不进入输出
	model := data[11]
	swVer := formatSoftwareVersion(data[12:15])
	msgType := data[15]

	r := newFieldReader(data, statusMinLen)
	date := DecodeDate(r.take(3))
	clock := DecodeTime(r.take(3))
	cellID := r.u32()
	mcc := DecodeBCD(r.take(2))
	mnc := DecodeBCD(r.take(2))
	lac := r.u16()
	rxLvl := r.u8()
	lat := DecodeCoordinate(r.take(4))
	lon := DecodeCoordinate(r.take(4))
	spd := DecodeSpeed(r.take(2))
	crs := DecodeCourse(r.take(2))
	satt := r.u8()
	fix := r.u8()
	inState := r.u8()
	outState := r.u8()
	mode := r.u8()
	rptType := r.u8()
	msgNum := r.u16()
	_ = r.u8() // reserved
	assignMap := r.u32()

	rep := &StatusReport{
		Timestamp:       d.now(),
		ReportType:      "STT (Status Report)",
		Header:          headerLabel(hdr),
		DeviceID:        devID,
		PacketLength:    pktLen,
		ModelID:         model,
		SoftwareVersion: swVer,
		MessageType:     messageTypeLabel(msgType),
		TimestampGPS:    date + " " + clock,
		GPS: GpsFix{
			Latitude:   lat,
			Longitude:  lon,
			SpeedKmh:   spd,
			CourseDeg:  crs,
			Satellites: int(satt),
			FixStatus:  fixStatusLabel(fix),
		},
		Cellular: CellInfo{
			MCC:     mcc,
			MNC:     mnc,
			LAC:     fmt.Sprintf("%04X", lac),
			RxLevel: int(rxLvl),
			CellID:  fmt.Sprintf("%08X", cellID),
		},
		Status: DeviceStatus{
			InputState:    fmt.Sprintf("0x%02X", inState),
			OutputState:   fmt.Sprintf("0x%02X", outState),
			Ignition:      ignitionLabel(inState),
			DeviceMode:    deviceModeLabel(mode),
			ReportTypeID:  int(rptType),
			MessageNumber: msgNum,
		},
		AssignMap: fmt.Sprintf("0x%08X", assignMap),
		RawHex:    hexLower(data),
		raw:       data,
	}

	// 分配位图宣告电源电压时，从 58 字节固定布局之后的前两个尾部字节取值
	if trailing := len(data) - statusFixedLen; trailing > 0 {
		rep.RawTrailingLength = trailing
		if assignMap&assignPowerVoltage != 0 && trailing >= 2 {
			mv := int(binary.BigEndian.Uint16(data[statusFixedLen : statusFixedLen+2]))
			if mv >= voltageMinMV && mv <= voltageMaxMV {
				rep.InputVoltageMV = &mv
			}
		}
	}
	return rep, nil
}

// formatSoftwareVersion 3 字节原始十六进制对，渲染为 major.minor.patchhex。
func formatSoftwareVersion(b []byte) string {
	s := fmt.Sprintf("%02X%02X%02X", b[0], b[1], b[2])
	return s[0:1] + "." + s[1:2] + "." + s[2:]
}

func headerLabel(hdr byte) string {
	if hdr == HeaderBeaconScanAck {
		return fmt.Sprintf("0x%02X (ACK required)", hdr)
	}
	return fmt.Sprintf("0x%02X (No ACK required)", hdr)
}

func messageTypeLabel(t byte) string {
	if t == 1 {
		return "Real Time (1)"
	}
	return "Stored (0)"
}

func fixStatusLabel(fix byte) string {
	switch fix {
	case 0:
		return "Not Fixed"
	case 1:
		return "Fixed"
	case 3:
		return "DR Activated"
	default:
		return strconv.Itoa(int(fix))
	}
}

func deviceModeLabel(mode byte) string {
	switch mode {
	case 1:
		return "Driving"
	case 5:
		return "Deactivate Zone"
	default:
		return strconv.Itoa(int(mode))
	}
}

// ignitionLabel 输入状态位 0 为点火线。
func ignitionLabel(inState byte) string {
	if inState&0x01 != 0 {
		return "ON"
	}
	return "OFF"
}
