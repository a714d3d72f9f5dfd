package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

func testEvent(id, mac string) tracker.Event {
	return tracker.Event{
		ID:             id,
		Timestamp:      time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC),
		MACID:          mac,
		IgnitionStatus: "ON",
	}
}

func TestFileSink_WritesNDJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(cfgpkg.FileSinkConfig{Enabled: true, Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	s.now = func() time.Time { return time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	require.NoError(t, s.Write(ctx, testEvent("ev-1", "AC:23:3F:5E:2B:3C")))
	require.NoError(t, s.Write(ctx, testEvent("ev-2", "C3:00:00:40:08:9D")))

	f, err := os.Open(filepath.Join(dir, "beacon-events-2025-08-29.log"))
	require.NoError(t, err)
	defer f.Close()

	var lines []tracker.Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev tracker.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		lines = append(lines, ev)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "ev-1", lines[0].ID)
	assert.Equal(t, "AC:23:3F:5E:2B:3C", lines[0].MACID)
	assert.Equal(t, "ev-2", lines[1].ID)
}

func TestFileSink_DayRollover(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(cfgpkg.FileSinkConfig{Enabled: true, Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2025, 8, 29, 23, 59, 59, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Write(ctx, testEvent("ev-1", "AC:23:3F:5E:2B:3C")))
	now = now.Add(2 * time.Second)
	require.NoError(t, s.Write(ctx, testEvent("ev-2", "AC:23:3F:5E:2B:3C")))

	_, err = os.Stat(filepath.Join(dir, "beacon-events-2025-08-29.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "beacon-events-2025-08-30.log"))
	assert.NoError(t, err)
}

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "failing" }
func (f *failingSink) Write(context.Context, tracker.Event) error {
	f.calls++
	return errors.New("boom")
}
func (f *failingSink) Close() error { return nil }

type countingSink struct{ calls int }

func (c *countingSink) Name() string { return "counting" }
func (c *countingSink) Write(context.Context, tracker.Event) error {
	c.calls++
	return nil
}
func (c *countingSink) Close() error { return nil }

func TestFanout_FailureDoesNotStopOthers(t *testing.T) {
	bad := &failingSink{}
	good := &countingSink{}
	var observed []string
	f := NewFanout(zap.NewNop(), func(name string) { observed = append(observed, name) }, bad, good)

	f.Publish(context.Background(), []tracker.Event{
		testEvent("ev-1", "AC:23:3F:5E:2B:3C"),
		testEvent("ev-2", "AC:23:3F:5E:2B:3C"),
	})

	assert.Equal(t, 2, bad.calls)
	assert.Equal(t, 2, good.calls, "failure in one sink must not skip the others")
	assert.Equal(t, []string{"failing", "failing"}, observed)
}
