package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cfgpkg "github.com/taoyao-code/suntech-server/internal/config"
	"github.com/taoyao-code/suntech-server/internal/tracker"
)

// FileSink 按自然日追加 NDJSON 事件行，文件名 beacon-events-<YYYY-MM-DD>.log。
// 跨日写入时自动切换到新文件。
type FileSink struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	day     string
	current *os.File
}

// NewFileSink 创建目录（如缺失）并返回文件 sink。
func NewFileSink(cfg cfgpkg.FileSinkConfig) (*FileSink, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	return &FileSink{dir: cfg.Dir, now: time.Now}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(_ context.Context, ev tracker.Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.now().Format("2006-01-02")
	if s.current == nil || day != s.day {
		if err := s.rotateLocked(day); err != nil {
			return err
		}
	}
	if _, err := s.current.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event line: %w", err)
	}
	return nil
}

func (s *FileSink) rotateLocked(day string) error {
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	path := filepath.Join(s.dir, "beacon-events-"+day+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", path, err)
	}
	s.current = f
	s.day = day
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}
