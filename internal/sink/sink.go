// Package sink 把增强事件转发到可插拔的下游。转发是旁路副作用：
// 任何 sink 故障都不影响解码与会话状态的正确性。
package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/taoyao-code/suntech-server/internal/tracker"
)

// EventSink 事件下游。Write 不得修改传入事件。
type EventSink interface {
	Name() string
	Write(ctx context.Context, ev tracker.Event) error
	Close() error
}

// Fanout 顺序广播到多个 sink。单个 sink 失败只记日志与指标，
// 不中断其余 sink，也不向调用方传播。
type Fanout struct {
	sinks   []EventSink
	logger  *zap.Logger
	onError func(sink string)
}

// NewFanout 创建广播器。onError 可为 nil。
func NewFanout(logger *zap.Logger, onError func(sink string), sinks ...EventSink) *Fanout {
	return &Fanout{sinks: sinks, logger: logger, onError: onError}
}

// Publish 把一批事件依次写入所有 sink。
func (f *Fanout) Publish(ctx context.Context, events []tracker.Event) {
	for _, ev := range events {
		for _, s := range f.sinks {
			if err := s.Write(ctx, ev); err != nil {
				f.logger.Warn("event sink write failed",
					zap.String("sink", s.Name()),
					zap.String("event_id", ev.ID),
					zap.Error(err))
				if f.onError != nil {
					f.onError(s.Name())
				}
			}
		}
	}
}

// Close 关闭全部 sink，返回第一个遇到的错误。
func (f *Fanout) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
