package config

import (
	"fmt"
	"log"
	"os"

	"github.com/gonewx/projector/pkg/projector"
	"gopkg.in/yaml.v3"
)

// ProjectorConfigFile 定义精灵图动画配置文件结构
type ProjectorConfigFile struct {
	Version    string           `yaml:"version"`
	Defaults   ProjectorEntry   `yaml:"defaults"`   // 所有条目共享的默认值
	Projectors []ProjectorEntry `yaml:"projectors"` // 各个动画
}

// ProjectorEntry 定义单个精灵图动画
//
// 指针字段为 nil 表示使用 defaults 中的值，defaults 也未设置时使用
// projector.DefaultConfig() 的值。
type ProjectorEntry struct {
	Name        string                    `yaml:"name"`
	Sheet       string                    `yaml:"sheet"`        // 精灵图路径
	FrameRate   *float64                  `yaml:"frame_rate"`   // 每秒帧数
	FrameCount  *int                      `yaml:"frame_count"`  // 总帧数
	ColumnCount *int                      `yaml:"column_count"` // 每行列数
	Repeat      *projector.RepeatBehavior `yaml:"repeat"`       // forever / 3x / 500ms / 0:0:5
	AutoReverse *bool                     `yaml:"auto_reverse"` // 正向结束后反向播放
	Fill        *projector.FillBehavior   `yaml:"fill"`         // hold_end / stop
	AutoStart   *bool                     `yaml:"auto_start"`   // 接入精灵图后自动播放
	RepeatMode  *projector.RepeatMode     `yaml:"repeat_mode"`  // pass / cycle
	View        ViewSize                  `yaml:"view"`         // 单元格显示尺寸
	Position    Point                     `yaml:"position"`     // 屏幕位置
}

// ViewSize 单元格显示尺寸（0 表示使用精灵图单元格的像素尺寸）
type ViewSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Point 屏幕坐标
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LoadProjectorConfig 从文件加载精灵图动画配置
//
// 参数：
//   - path: YAML 配置文件路径
//
// 返回：
//   - *ProjectorConfigFile: 合并默认值后的配置
//   - error: 读取、解析或校验失败
func LoadProjectorConfig(path string) (*ProjectorConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projector config %s: %w", path, err)
	}

	cfg, err := ParseProjectorConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load projector config %s: %w", path, err)
	}

	log.Printf("[ProjectorConfig] Loaded %s (version=%s, projectors=%d)", path, cfg.Version, len(cfg.Projectors))
	return cfg, nil
}

// ParseProjectorConfig 解析 YAML 数据，合并默认值并校验每个条目
func ParseProjectorConfig(data []byte) (*ProjectorConfigFile, error) {
	cfg := &ProjectorConfigFile{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse projector config: %w", err)
	}

	if cfg.Version == "" {
		log.Printf("[ProjectorConfig] Warning: config has no version field")
	}
	if len(cfg.Projectors) == 0 {
		log.Printf("[ProjectorConfig] Warning: config has no projectors defined")
	}

	seen := make(map[string]bool, len(cfg.Projectors))
	for i := range cfg.Projectors {
		entry := &cfg.Projectors[i]
		if entry.Name == "" {
			return nil, fmt.Errorf("projector #%d has no name", i)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("duplicate projector name %q", entry.Name)
		}
		seen[entry.Name] = true

		entry.applyDefaults(&cfg.Defaults)
		if _, err := entry.AnimationConfig(); err != nil {
			return nil, fmt.Errorf("projector %q: %w", entry.Name, err)
		}
	}

	return cfg, nil
}

// applyDefaults 用 defaults 填充未设置的字段
func (e *ProjectorEntry) applyDefaults(d *ProjectorEntry) {
	if e.Sheet == "" {
		e.Sheet = d.Sheet
	}
	if e.FrameRate == nil {
		e.FrameRate = d.FrameRate
	}
	if e.FrameCount == nil {
		e.FrameCount = d.FrameCount
	}
	if e.ColumnCount == nil {
		e.ColumnCount = d.ColumnCount
	}
	if e.Repeat == nil {
		e.Repeat = d.Repeat
	}
	if e.AutoReverse == nil {
		e.AutoReverse = d.AutoReverse
	}
	if e.Fill == nil {
		e.Fill = d.Fill
	}
	if e.AutoStart == nil {
		e.AutoStart = d.AutoStart
	}
	if e.RepeatMode == nil {
		e.RepeatMode = d.RepeatMode
	}
	if e.View.Width == 0 && e.View.Height == 0 {
		e.View = d.View
	}
}

// AnimationConfig 转换为经过校验的动画配置
func (e *ProjectorEntry) AnimationConfig() (projector.AnimationConfig, error) {
	cfg := projector.DefaultConfig()
	if e.FrameRate != nil {
		cfg.FrameRate = *e.FrameRate
	}
	if e.FrameCount != nil {
		cfg.FrameCount = *e.FrameCount
	}
	if e.ColumnCount != nil {
		cfg.ColumnCount = *e.ColumnCount
	}
	if e.Repeat != nil {
		cfg.Repeat = *e.Repeat
	}
	if e.AutoReverse != nil {
		cfg.AutoReverse = *e.AutoReverse
	}
	if e.Fill != nil {
		cfg.Fill = *e.Fill
	}
	if e.AutoStart != nil {
		cfg.AutoStart = *e.AutoStart
	}
	if e.RepeatMode != nil {
		cfg.RepeatMode = *e.RepeatMode
	}

	if err := cfg.Validate(); err != nil {
		return projector.AnimationConfig{}, err
	}
	return cfg, nil
}

// Find 按名称查找条目
func (f *ProjectorConfigFile) Find(name string) (*ProjectorEntry, bool) {
	if f == nil {
		return nil, false
	}
	for i := range f.Projectors {
		if f.Projectors[i].Name == name {
			return &f.Projectors[i], true
		}
	}
	return nil, false
}
