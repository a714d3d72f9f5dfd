package suntech

import "time"

// Kind 报告变体标记。
type Kind string

const (
	KindStatus        Kind = "status"
	KindBeaconScan    Kind = "beacon_scan"
	KindParseError    Kind = "parse_error"
	KindUnknownHeader Kind = "unknown_header"
)

// Report 单帧解码结果。每个变体都保留原始字节供事后复盘，
// 构造后不可变。
type Report interface {
	ReportKind() Kind
	RawBytes() []byte
}

// GpsFix GPS 定位块，字段命名与上游 JSON 输出保持一致。
type GpsFix struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SpeedKmh   float64 `json:"speed_kmh"`
	CourseDeg  float64 `json:"course_deg"`
	Satellites int     `json:"satellites"`
	FixStatus  string  `json:"fix_status"`
}

// CellInfo 蜂窝网络信息块。
type CellInfo struct {
	MCC     uint64 `json:"mcc"`
	MNC     uint64 `json:"mnc"`
	LAC     string `json:"lac"`
	RxLevel int    `json:"rx_level_rssi"`
	CellID  string `json:"cell_id"`
}

// DeviceStatus 设备状态块。Ignition 由输入状态位 0 推导。
type DeviceStatus struct {
	InputState    string `json:"input_state_hex"`
	OutputState   string `json:"output_state_hex"`
	Ignition      string `json:"ignition"`
	DeviceMode    string `json:"device_mode"`
	ReportTypeID  int    `json:"report_type_id"`
	MessageNumber uint16 `json:"message_number"`
}

// StatusReport STT 状态上报（0x81/0x82）。
type StatusReport struct {
	Timestamp         time.Time    `json:"timestamp"`
	ReportType        string       `json:"report_type"`
	Header            string       `json:"header"`
	DeviceID          uint64       `json:"device_id_esn"`
	PacketLength      uint16       `json:"packet_length"`
	ModelID           uint8        `json:"model_id"`
	SoftwareVersion   string       `json:"software_version"`
	MessageType       string       `json:"message_type"`
	TimestampGPS      string       `json:"timestamp_gps"`
	GPS               GpsFix       `json:"gps"`
	Cellular          CellInfo     `json:"cellular"`
	Status            DeviceStatus `json:"status"`
	AssignMap         string       `json:"assign_map_custom_headers"`
	InputVoltageMV    *int         `json:"input_voltage_mv,omitempty"`
	RawTrailingLength int          `json:"raw_trailing_data_length"`
	RawHex            string       `json:"raw_data"`

	raw []byte
}

func (r *StatusReport) ReportKind() Kind { return KindStatus }
func (r *StatusReport) RawBytes() []byte { return r.raw }

// ScanLocation 扫描起点坐标，字段缺失时整体为 nil（"not available"）。
type ScanLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SensorSighting 一次扫描中观测到的单个信标。
// MACAddress 恒为消解后方向的规范冒号形式。
type SensorSighting struct {
	MACAddress   string `json:"mac_address"`
	Orientation  string `json:"mac_endianness_used"`
	RSSI         int    `json:"rssi"`
	RSSIHex      string `json:"rssi_hex,omitempty"`
	IsTarget     bool   `json:"is_target_mac"`
	BytePosition int    `json:"byte_position"`
	RawPayload   string `json:"raw_payload,omitempty"`
	BatteryLevel *int   `json:"battery_level,omitempty"`
}

// BeaconScanReport BDA/SNB 信标扫描上报（0xAA/0xBA）。
type BeaconScanReport struct {
	Timestamp           time.Time        `json:"timestamp"`
	ReportType          string           `json:"report_type"`
	Header              string           `json:"header"`
	DeviceID            uint64           `json:"device_id_esn"`
	PacketLength        uint16           `json:"packet_length"`
	ModelID             uint8            `json:"model_id"`
	SoftwareVersion     string           `json:"software_version"`
	ScanStatus          string           `json:"ble_scan_status"`
	TotalReports        uint8            `json:"total_reports_expected"`
	CurrentReport       uint8            `json:"current_report_number"`
	ExpectedSensorCount uint16           `json:"scanned_sensor_count"`
	TimestampGPS        string           `json:"timestamp_gps,omitempty"`
	ScanLocation        *ScanLocation    `json:"location_scan_start,omitempty"`
	Sensors             []SensorSighting `json:"sensors"`
	SensorsParsed       int              `json:"sensors_parsed"`
	HasTargetMAC        bool             `json:"has_target_mac"`
	RawHex              string           `json:"raw_data"`

	raw []byte
}

func (r *BeaconScanReport) ReportKind() Kind { return KindBeaconScan }
func (r *BeaconScanReport) RawBytes() []byte { return r.raw }

// ParseErrorReport 解码失败。失败是值不是异常，原始字节照样保留。
type ParseErrorReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"error"`
	RawHex     string    `json:"raw_data"`
	ByteLength int       `json:"data_length"`

	raw []byte
}

func (r *ParseErrorReport) ReportKind() Kind { return KindParseError }
func (r *ParseErrorReport) RawBytes() []byte { return r.raw }

// UnknownHeaderReport 未识别的首字节。
type UnknownHeaderReport struct {
	Timestamp  time.Time `json:"timestamp"`
	HeaderByte uint8     `json:"header_byte"`
	Note       string    `json:"error"`
	RawHex     string    `json:"raw_data"`

	raw []byte
}

func (r *UnknownHeaderReport) ReportKind() Kind { return KindUnknownHeader }
func (r *UnknownHeaderReport) RawBytes() []byte { return r.raw }
