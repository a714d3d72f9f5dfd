package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/suntech-server/internal/protocol/suntech"
)

func newTestTracker(now *time.Time) *Tracker {
	seq := 0
	return New(1000, 10000,
		WithClock(func() time.Time { return *now }),
		WithIDGenerator(func() string {
			seq++
			return "ev-" + string(rune('a'+seq-1))
		}),
	)
}

func statusReport(ignition string, lat, lon float64, voltage *int) *suntech.StatusReport {
	return &suntech.StatusReport{
		DeviceID:       1990000910,
		GPS:            suntech.GpsFix{Latitude: lat, Longitude: lon},
		Status:         suntech.DeviceStatus{Ignition: ignition},
		InputVoltageMV: voltage,
	}
}

func scanReport(sightings ...suntech.SensorSighting) *suntech.BeaconScanReport {
	return &suntech.BeaconScanReport{
		DeviceID:      1990000910,
		Sensors:       sightings,
		SensorsParsed: len(sightings),
	}
}

func targetSighting(mac string, rssi int) suntech.SensorSighting {
	return suntech.SensorSighting{
		MACAddress:  mac,
		Orientation: suntech.OrientationBig,
		RSSI:        rssi,
		IsTarget:    true,
	}
}

func TestApply_IgnitionChangeEmitsOnce(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	events := trk.Apply(statusReport("OFF", 0, 0, nil))
	assert.Empty(t, events, "first report has no previous status to compare against")

	events = trk.Apply(statusReport("ON", 0, 0, nil))
	require.Len(t, events, 1)
	ev := events[0]
	assert.True(t, ev.IsIgnitionChange)
	assert.Equal(t, IgnitionChangeMarker, ev.MACID)
	assert.Equal(t, "OFF", ev.PreviousStatus)
	assert.Equal(t, "ON", ev.NewStatus)
	assert.Equal(t, "ON", ev.IgnitionStatus)

	snap := trk.StateSnapshot()
	assert.Equal(t, "ON", snap.CurrentIgnition)
	assert.Equal(t, "ON", snap.PreviousIgnition)
}

func TestApply_SameIgnitionEmitsNothing(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	assert.Empty(t, trk.Apply(statusReport("ON", 0, 0, nil)))
	assert.Empty(t, trk.Apply(statusReport("ON", 0, 0, nil)))
	assert.Empty(t, trk.Events())
}

func TestApply_ZeroCoordinateSentinelNotCached(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	trk.Apply(statusReport("OFF", 37.7669, -122.4495, nil))
	snap := trk.StateSnapshot()
	require.NotNil(t, snap.Latitude)
	assert.InDelta(t, 37.7669, *snap.Latitude, 1e-9)

	// 全零是未定位哨兵，不得抹掉已有坐标
	trk.Apply(statusReport("OFF", 0, 0, nil))
	snap = trk.StateSnapshot()
	require.NotNil(t, snap.Latitude)
	assert.InDelta(t, 37.7669, *snap.Latitude, 1e-9)
	require.NotNil(t, snap.Longitude)
	assert.InDelta(t, -122.4495, *snap.Longitude, 1e-9)
}

func TestApply_VoltageBand(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	good := 12000
	trk.Apply(statusReport("OFF", 0, 0, &good))
	snap := trk.StateSnapshot()
	require.NotNil(t, snap.InputVoltageMV)
	assert.Equal(t, 12000, *snap.InputVoltageMV)

	bad := 24000
	trk.Apply(statusReport("OFF", 0, 0, &bad))
	snap = trk.StateSnapshot()
	require.NotNil(t, snap.InputVoltageMV)
	assert.Equal(t, 12000, *snap.InputVoltageMV, "out-of-band voltage must not replace the cache")
}

func TestApply_FrequencyBetweenSightings(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)
	mac := "AC:23:3F:5E:2B:3C"

	events := trk.Apply(scanReport(targetSighting(mac, -69)))
	require.Len(t, events, 1)
	assert.Nil(t, events[0].FrequencySeconds, "no prior sighting, frequency unknown")

	now = now.Add(5 * time.Second)
	events = trk.Apply(scanReport(targetSighting(mac, -70)))
	require.Len(t, events, 1)
	require.NotNil(t, events[0].FrequencySeconds)
	assert.InDelta(t, 5.0, *events[0].FrequencySeconds, 1e-9)
}

func TestApply_NonPositiveDeltaMeansNoFrequency(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)
	mac := "AC:23:3F:5E:2B:3C"

	trk.Apply(scanReport(targetSighting(mac, -69)))

	// 时钟回拨：频率按未知处理而不是给出负值
	now = now.Add(-3 * time.Second)
	events := trk.Apply(scanReport(targetSighting(mac, -70)))
	require.Len(t, events, 1)
	assert.Nil(t, events[0].FrequencySeconds)
}

func TestApply_OnlyTargetSightingsEmit(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	other := suntech.SensorSighting{MACAddress: "11:22:33:44:55:66", RSSI: -40}
	events := trk.Apply(scanReport(other, targetSighting("AC:23:3F:75:A7:EF", -80)))
	require.Len(t, events, 1)
	assert.Equal(t, "AC:23:3F:75:A7:EF", events[0].MACID)
	assert.Equal(t, 2, events[0].SensorCount)
	require.NotNil(t, events[0].RSSI)
	assert.Equal(t, -80, *events[0].RSSI)
}

func TestApply_EventCarriesSessionContext(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	voltage := 13500
	trk.Apply(statusReport("ON", 49.148988, 18.920534, &voltage))
	events := trk.Apply(scanReport(targetSighting("C3:00:00:40:08:9D", -93)))
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "ON", ev.IgnitionStatus)
	require.NotNil(t, ev.Latitude)
	assert.InDelta(t, 49.148988, *ev.Latitude, 1e-9)
	require.NotNil(t, ev.InputVoltageMV)
	assert.Equal(t, 13500, *ev.InputVoltageMV)
}

func TestApply_ScanLocationFallback(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	rep := scanReport(targetSighting("AC:23:3F:5E:2B:3C", -69))
	rep.ScanLocation = &suntech.ScanLocation{Latitude: 49.148988, Longitude: 18.920534}
	events := trk.Apply(rep)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Latitude)
	assert.InDelta(t, 49.148988, *events[0].Latitude, 1e-9)
}

func TestApply_HistoriesRecordEverything(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	trk := newTestTracker(&now)

	trk.Apply(statusReport("OFF", 0, 0, nil))
	trk.Apply(statusReport("ON", 0, 0, nil))
	trk.Apply(scanReport(targetSighting("AC:23:3F:5E:2B:3C", -69)))

	assert.Len(t, trk.Messages(), 3)
	events := trk.Events()
	require.Len(t, events, 2)
	assert.True(t, events[0].IsIgnitionChange)
	assert.False(t, events[1].IsIgnitionChange)

	msgs, evs := trk.Lens()
	assert.Equal(t, 3, msgs)
	assert.Equal(t, 2, evs)
}

func TestSessionState_LastSeenEviction(t *testing.T) {
	s := newSessionState()
	base := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	for i := 0; i < lastSeenCap; i++ {
		s.touch(string(rune(i)), base.Add(time.Duration(i)*time.Second))
	}
	s.touch("newcomer", base.Add(time.Hour))
	if len(s.lastSeen) != lastSeenCap {
		t.Fatalf("len = %d, want %d", len(s.lastSeen), lastSeenCap)
	}
	if _, ok := s.lastSeen[string(rune(0))]; ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	if _, ok := s.lastSeen["newcomer"]; !ok {
		t.Fatalf("newcomer missing")
	}
}
