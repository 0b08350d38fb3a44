package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gonewx/projector/pkg/projector"
)

const sampleProjectorConfig = `
version: "1.0"
defaults:
  frame_rate: 24
  fill: hold_end
  auto_start: true
  view: {width: 64, height: 64}
projectors:
  - name: explosion
    sheet: assets/explosion.png
    frame_count: 12
    column_count: 4
    repeat: 3x
  - name: flag
    sheet: assets/flag.png
    frame_rate: 8
    frame_count: 6
    column_count: 6
    repeat: forever
    auto_reverse: true
    repeat_mode: cycle
    fill: stop
    auto_start: false
    view: {width: 32, height: 48}
    position: {x: 100, y: 80}
  - name: spinner
    sheet: assets/spinner.png
    frame_count: 8
    column_count: 8
    repeat: "0:0:2"
`

// TestParseProjectorConfig 测试解析与默认值合并
func TestParseProjectorConfig(t *testing.T) {
	cfg, err := ParseProjectorConfig([]byte(sampleProjectorConfig))
	if err != nil {
		t.Fatalf("ParseProjectorConfig() error: %v", err)
	}
	if cfg.Version != "1.0" || len(cfg.Projectors) != 3 {
		t.Fatalf("unexpected config: version=%q projectors=%d", cfg.Version, len(cfg.Projectors))
	}

	tests := []struct {
		name string
		want projector.AnimationConfig
		view ViewSize
	}{
		{
			name: "explosion",
			want: projector.AnimationConfig{
				FrameRate: 24, FrameCount: 12, ColumnCount: 4,
				Repeat: projector.Times(3), Fill: projector.FillHoldEnd, AutoStart: true,
			},
			view: ViewSize{Width: 64, Height: 64},
		},
		{
			name: "flag",
			want: projector.AnimationConfig{
				FrameRate: 8, FrameCount: 6, ColumnCount: 6,
				Repeat: projector.Forever(), AutoReverse: true, Fill: projector.FillStop,
				AutoStart: false, RepeatMode: projector.RepeatPerCycle,
			},
			view: ViewSize{Width: 32, Height: 48},
		},
		{
			name: "spinner",
			want: projector.AnimationConfig{
				FrameRate: 24, FrameCount: 8, ColumnCount: 8,
				Repeat: projector.For(2 * time.Second), Fill: projector.FillHoldEnd, AutoStart: true,
			},
			view: ViewSize{Width: 64, Height: 64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := cfg.Find(tt.name)
			if !ok {
				t.Fatalf("projector %q not found", tt.name)
			}
			got, err := entry.AnimationConfig()
			if err != nil {
				t.Fatalf("AnimationConfig() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AnimationConfig() = %+v, want %+v", got, tt.want)
			}
			if entry.View != tt.view {
				t.Errorf("View = %+v, want %+v", entry.View, tt.view)
			}
		})
	}

	flag, _ := cfg.Find("flag")
	if flag.Position != (Point{X: 100, Y: 80}) {
		t.Errorf("Position = %+v, want (100,80)", flag.Position)
	}
	if _, ok := cfg.Find("missing"); ok {
		t.Error("Find() should not find unknown projector")
	}
}

// TestParseProjectorConfigErrors 测试非法配置
func TestParseProjectorConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
		isCfg   bool
	}{
		{
			name:    "missing_name",
			data:    "projectors:\n  - sheet: a.png\n",
			wantErr: "has no name",
		},
		{
			name:    "duplicate_name",
			data:    "projectors:\n  - name: a\n  - name: a\n",
			wantErr: "duplicate",
		},
		{
			name:    "zero_frames",
			data:    "projectors:\n  - name: a\n    frame_count: 0\n",
			wantErr: "FrameCount",
			isCfg:   true,
		},
		{
			name:    "negative_columns",
			data:    "projectors:\n  - name: a\n    column_count: -3\n",
			wantErr: "ColumnCount",
			isCfg:   true,
		},
		{
			name:    "bad_repeat",
			data:    "projectors:\n  - name: a\n    repeat: sometimes\n",
			wantErr: "repeat",
			isCfg:   true,
		},
		{
			name:    "bad_fill",
			data:    "projectors:\n  - name: a\n    fill: sideways\n",
			wantErr: "fill",
			isCfg:   true,
		},
		{
			name:    "broken_yaml",
			data:    "projectors: [\n",
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProjectorConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			if tt.isCfg && !errors.Is(err, projector.ErrInvalidConfig) {
				t.Errorf("Expected errors.Is(err, ErrInvalidConfig), got %v", err)
			}
		})
	}
}

// TestLoadProjectorConfig 测试从文件加载
func TestLoadProjectorConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projectors.yaml")
	if err := os.WriteFile(path, []byte(sampleProjectorConfig), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := LoadProjectorConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectorConfig() error: %v", err)
	}
	if len(cfg.Projectors) != 3 {
		t.Errorf("Expected 3 projectors, got %d", len(cfg.Projectors))
	}

	if _, err := LoadProjectorConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist for missing file, got %v", err)
	}
}

// TestWatcherReportsYAMLChanges 测试配置文件变化通知
func TestWatcherReportsYAMLChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	// 非 YAML 文件被忽略
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	path := filepath.Join(dir, "projectors.yaml")
	if err := os.WriteFile(path, []byte(sampleProjectorConfig), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "projectors.yaml" {
			t.Errorf("Expected projectors.yaml event, got %s", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no watcher event for YAML write")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	// 重复关闭是安全的
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
