// Package gateway 把 TCP 网关、协议解码、会话跟踪与事件下游接到一起。
package gateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/taoyao-code/suntech-server/internal/metrics"
	"github.com/taoyao-code/suntech-server/internal/protocol/suntech"
	"github.com/taoyao-code/suntech-server/internal/sink"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

// NewFrameHandler 返回 TCP 网关的单帧处理回调。
// 解码在锁外完成，Apply 内部才进入临界区；事件发布同样在锁外，
// sink 的慢速 I/O 不会拖住其它连接的状态更新。
func NewFrameHandler(
	dec *suntech.Decoder,
	trk *tracker.Tracker,
	events *sink.Fanout,
	appm *metrics.AppMetrics,
	logger *zap.Logger,
) func([]byte) {
	return func(frame []byte) {
		rep := dec.Dispatch(frame)

		if appm != nil {
			appm.FramesDecoded.WithLabelValues(string(rep.ReportKind())).Inc()
		}

		switch r := rep.(type) {
		case *suntech.StatusReport:
			logger.Info("status report",
				zap.Uint64("device_id", r.DeviceID),
				zap.String("ignition", r.Status.Ignition),
				zap.Float64("lat", r.GPS.Latitude),
				zap.Float64("lon", r.GPS.Longitude))
		case *suntech.BeaconScanReport:
			if appm != nil {
				appm.SensorSightings.Add(float64(r.SensorsParsed))
			}
			logger.Info("beacon scan report",
				zap.Uint64("device_id", r.DeviceID),
				zap.Int("sensors", r.SensorsParsed),
				zap.Bool("has_target", r.HasTargetMAC))
		case *suntech.ParseErrorReport:
			logger.Warn("frame parse error",
				zap.String("reason", r.Reason),
				zap.Int("bytes", r.ByteLength),
				zap.String("raw", r.RawHex))
		case *suntech.UnknownHeaderReport:
			logger.Warn("unknown frame header",
				zap.Uint8("header", r.HeaderByte),
				zap.String("note", r.Note))
		}

		emitted := trk.Apply(rep)
		if appm != nil {
			for _, ev := range emitted {
				if ev.IsIgnitionChange {
					appm.BeaconEvents.WithLabelValues("ignition_change").Inc()
				} else {
					appm.BeaconEvents.WithLabelValues("sighting").Inc()
				}
			}
			msgs, evs := trk.Lens()
			appm.MessageHistory.Set(float64(msgs))
			appm.EventHistory.Set(float64(evs))
		}

		if events != nil && len(emitted) > 0 {
			events.Publish(context.Background(), emitted)
		}
	}
}
