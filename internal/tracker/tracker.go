package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/suntech-server/internal/protocol/suntech"
	"github.com/taoyao-code/suntech-server/internal/store"
)

// 电压有效区间（毫伏）。区间外视为字段错位，按缺失处理。
const (
	voltageMinMV = 10000
	voltageMaxMV = 20000
)

// Tracker 串行化全部状态变更：原始报文入环、会话状态更新、
// 事件派生与入环在同一临界区内完成，任何快照读到的都是一致视图。
// 解码必须发生在锁外，Apply 只做纯内存状态迁移。
type Tracker struct {
	mu       sync.Mutex
	state    *sessionState
	messages *store.Ring[suntech.Report]
	events   *store.Ring[Event]
	now      func() time.Time
	newID    func() string
}

// Option 配置 Tracker。
type Option func(*Tracker)

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator 注入事件 ID 生成器，测试用。
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) { t.newID = gen }
}

// New 创建原始报文容量 messageCap、事件容量 eventCap 的 Tracker。
func New(messageCap, eventCap int, opts ...Option) *Tracker {
	t := &Tracker{
		state:    newSessionState(),
		messages: store.NewRing[suntech.Report](messageCap),
		events:   store.NewRing[Event](eventCap),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Apply 记录一条已解码报文并返回由它派生的事件。
// 返回的切片是调用方私有的，可直接交给下游 sink。
func (t *Tracker) Apply(rep suntech.Report) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages.Append(rep)

	var events []Event
	switch r := rep.(type) {
	case *suntech.StatusReport:
		events = t.applyStatus(r)
	case *suntech.BeaconScanReport:
		events = t.applyScan(r)
	}
	for _, ev := range events {
		t.events.Append(ev)
	}
	return events
}

func (t *Tracker) applyStatus(r *suntech.StatusReport) []Event {
	s := t.state

	// 全零坐标是"未定位"哨兵，不得覆盖已缓存位置
	if r.GPS.Latitude != 0 || r.GPS.Longitude != 0 {
		lat, lon := r.GPS.Latitude, r.GPS.Longitude
		s.latitude, s.longitude = &lat, &lon
	}
	if r.InputVoltageMV != nil {
		if mv := *r.InputVoltageMV; mv >= voltageMinMV && mv <= voltageMaxMV {
			s.voltageMV = &mv
		}
	}

	newIgn := r.Status.Ignition
	var events []Event
	if s.prevSet && s.prevIgnition != newIgn {
		ev := Event{
			ID:               t.newID(),
			Timestamp:        t.now(),
			MACID:            IgnitionChangeMarker,
			IgnitionStatus:   newIgn,
			PreviousStatus:   s.prevIgnition,
			NewStatus:        newIgn,
			IsIgnitionChange: true,
		}
		ev.Latitude, ev.Longitude = copyFloat(s.latitude), copyFloat(s.longitude)
		ev.InputVoltageMV = copyInt(s.voltageMV)
		events = append(events, ev)
	}
	s.prevIgnition = newIgn
	s.prevSet = true
	s.ignition = newIgn
	return events
}

func (t *Tracker) applyScan(r *suntech.BeaconScanReport) []Event {
	s := t.state
	now := t.now()

	var events []Event
	for _, sighting := range r.Sensors {
		if !sighting.IsTarget {
			continue
		}
		ev := Event{
			ID:             t.newID(),
			Timestamp:      now,
			MACID:          sighting.MACAddress,
			IgnitionStatus: s.ignition,
			SensorCount:    r.SensorsParsed,
			BatteryLevel:   copyInt(sighting.BatteryLevel),
		}
		rssi := sighting.RSSI
		ev.RSSI = &rssi

		// 会话缓存优先，缺失时退而用本帧扫描起点
		ev.Latitude, ev.Longitude = copyFloat(s.latitude), copyFloat(s.longitude)
		if ev.Latitude == nil && r.ScanLocation != nil {
			lat, lon := r.ScanLocation.Latitude, r.ScanLocation.Longitude
			ev.Latitude, ev.Longitude = &lat, &lon
		}
		ev.InputVoltageMV = copyInt(s.voltageMV)

		// 非正时间差意味着时钟或乱序异常，频率按未知处理
		if prev, ok := s.lastSeen[sighting.MACAddress]; ok {
			if delta := now.Sub(prev).Seconds(); delta > 0 {
				ev.FrequencySeconds = &delta
			}
		}
		s.touch(sighting.MACAddress, now)

		events = append(events, ev)
	}
	return events
}

// Messages 原始报文历史快照，从旧到新。
func (t *Tracker) Messages() []suntech.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages.Snapshot()
}

// Events 增强事件历史快照，从旧到新。
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events.Snapshot()
}

// StateSnapshot 会话状态的一致拷贝。
func (t *Tracker) StateSnapshot() StateSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.snapshot()
}

// Lens 两个历史环的当前长度，供指标采集。
func (t *Tracker) Lens() (messages, events int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages.Len(), t.events.Len()
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
