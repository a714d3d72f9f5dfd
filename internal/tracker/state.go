package tracker

import "time"

// lastSeenCap 同时跟踪的信标地址上限，超出后淘汰最久未见的条目。
const lastSeenCap = 4096

// sessionState 进程级设备会话缓存，仅由 Tracker 在锁内修改。
type sessionState struct {
	ignition     string // 初始 "OFF"
	prevIgnition string
	prevSet      bool
	latitude     *float64
	longitude    *float64
	voltageMV    *int
	lastSeen     map[string]time.Time
}

func newSessionState() *sessionState {
	return &sessionState{
		ignition: "OFF",
		lastSeen: make(map[string]time.Time),
	}
}

func (s *sessionState) touch(mac string, ts time.Time) {
	if _, known := s.lastSeen[mac]; !known && len(s.lastSeen) >= lastSeenCap {
		s.evictOldest()
	}
	s.lastSeen[mac] = ts
}

func (s *sessionState) evictOldest() {
	var oldest string
	var oldestAt time.Time
	for mac, at := range s.lastSeen {
		if oldest == "" || at.Before(oldestAt) {
			oldest, oldestAt = mac, at
		}
	}
	if oldest != "" {
		delete(s.lastSeen, oldest)
	}
}

// StateSnapshot 会话状态的只读拷贝，供 HTTP 层返回。
type StateSnapshot struct {
	CurrentIgnition  string               `json:"current_ignition_status"`
	PreviousIgnition string               `json:"previous_ignition_status,omitempty"`
	Latitude         *float64             `json:"current_latitude,omitempty"`
	Longitude        *float64             `json:"current_longitude,omitempty"`
	InputVoltageMV   *int                 `json:"current_input_voltage_mv,omitempty"`
	LastSeen         map[string]time.Time `json:"beacon_last_seen"`
}

func (s *sessionState) snapshot() StateSnapshot {
	snap := StateSnapshot{
		CurrentIgnition: s.ignition,
		LastSeen:        make(map[string]time.Time, len(s.lastSeen)),
	}
	if s.prevSet {
		snap.PreviousIgnition = s.prevIgnition
	}
	if s.latitude != nil {
		v := *s.latitude
		snap.Latitude = &v
	}
	if s.longitude != nil {
		v := *s.longitude
		snap.Longitude = &v
	}
	if s.voltageMV != nil {
		v := *s.voltageMV
		snap.InputVoltageMV = &v
	}
	for mac, at := range s.lastSeen {
		snap.LastSeen[mac] = at
	}
	return snap
}
