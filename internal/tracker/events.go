// Package tracker 维护单实例会话状态并派生增强信标事件。
package tracker

import "time"

// IgnitionChangeMarker 点火状态翻转事件在 mac_id 字段上的合成标记。
const IgnitionChangeMarker = "IGNITION_CHANGE"

// Event 增强后的信标/点火事件，是下游日志与查询接口的统一载体。
// 指针字段缺失表示"当时未知"，序列化时整体省略。
type Event struct {
	ID               string    `json:"event_id"`
	Timestamp        time.Time `json:"timestamp"`
	MACID            string    `json:"mac_id"`
	IgnitionStatus   string    `json:"ignition_status"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	FrequencySeconds *float64  `json:"frequency_seconds,omitempty"`
	InputVoltageMV   *int      `json:"input_voltage_mv,omitempty"`
	SensorCount      int       `json:"sensor_count_in_message,omitempty"`
	RSSI             *int      `json:"rssi,omitempty"`
	BatteryLevel     *int      `json:"battery_level,omitempty"`
	PreviousStatus   string    `json:"previous_status,omitempty"`
	NewStatus        string    `json:"new_status,omitempty"`
	IsIgnitionChange bool      `json:"is_ignition_change,omitempty"`
}
