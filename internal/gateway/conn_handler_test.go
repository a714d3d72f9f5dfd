package gateway

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/suntech-server/internal/protocol/suntech"
	"github.com/taoyao-code/suntech-server/internal/sink"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

type captureSink struct {
	events []tracker.Event
}

func (c *captureSink) Name() string { return "capture" }
func (c *captureSink) Write(_ context.Context, ev tracker.Event) error {
	c.events = append(c.events, ev)
	return nil
}
func (c *captureSink) Close() error { return nil }

// statusFrame 组装一个 58 字节 STT 帧，点火状态由 inState 位 0 给出
func statusFrame(ignitionOn bool) []byte {
	f := make([]byte, 0, 58)
	f = append(f, suntech.HeaderStatus, 0x00, 0x3A)
	f = append(f, 0x01, 0x23, 0x45, 0x67, 0x89) // device id BCD
	f = append(f, 0x00, 0x00, 0x00)             // report bitmap
	f = append(f, 0x15)                         // model
	f = append(f, 0x01, 0x01, 0x0C)             // sw version
	f = append(f, 0x01)                         // real time
	f = append(f, 0x25, 0x08, 0x29)             // date
	f = append(f, 0x12, 0x30, 0x45)             // time
	f = append(f, 0x00, 0x00, 0x00, 0x01)       // cell id
	f = append(f, 0x05, 0x05, 0x00, 0x01)       // mcc, mnc
	f = append(f, 0x00, 0x01)                   // lac
	f = append(f, 0x1F)                         // rx level
	f = appendI32(f, 37766900)                  // lat
	f = appendI32(f, -122449500)                // lon
	f = append(f, 0x17, 0x89)                   // speed
	f = append(f, 0x46, 0x82)                   // course
	f = append(f, 0x08)                         // satellites
	f = append(f, 0x01)                         // fixed
	if ignitionOn {
		f = append(f, 0x01)
	} else {
		f = append(f, 0x00)
	}
	f = append(f, 0x00)             // out state
	f = append(f, 0x01)             // driving
	f = append(f, 0x01)             // report type
	f = append(f, 0x00, 0x07)       // message number
	f = append(f, 0x00)             // reserved
	f = append(f, 0, 0, 0, 0)       // assign map
	return f
}

func appendI32(b []byte, v int32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	return append(b, tmp[:]...)
}

// TestFrameHandler_EndToEnd 原始帧进、会话状态与事件出
func TestFrameHandler_EndToEnd(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	dec := suntech.NewDecoder(suntech.WithClock(func() time.Time { return now }))
	trk := tracker.New(1000, 10000, tracker.WithClock(func() time.Time { return now }))
	capture := &captureSink{}
	fanout := sink.NewFanout(zap.NewNop(), nil, capture)

	handler := NewFrameHandler(dec, trk, fanout, nil, zap.NewNop())

	handler(statusFrame(false))
	handler(statusFrame(true))

	msgs := trk.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, suntech.KindStatus, msgs[0].ReportKind())

	require.Len(t, capture.events, 1)
	ev := capture.events[0]
	assert.True(t, ev.IsIgnitionChange)
	assert.Equal(t, "OFF", ev.PreviousStatus)
	assert.Equal(t, "ON", ev.NewStatus)

	snap := trk.StateSnapshot()
	assert.Equal(t, "ON", snap.CurrentIgnition)
	require.NotNil(t, snap.Latitude)
	assert.InDelta(t, 37.7669, *snap.Latitude, 1e-4)
}

// TestFrameHandler_MalformedFrameStillRecorded 解码失败的帧也进入历史
func TestFrameHandler_MalformedFrameStillRecorded(t *testing.T) {
	dec := suntech.NewDecoder()
	trk := tracker.New(1000, 10000)
	handler := NewFrameHandler(dec, trk, nil, nil, zap.NewNop())

	handler(nil)
	handler([]byte{0x55, 0x01})

	msgs := trk.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, suntech.KindParseError, msgs[0].ReportKind())
	assert.Equal(t, suntech.KindUnknownHeader, msgs[1].ReportKind())
	assert.Empty(t, trk.Events())
}
