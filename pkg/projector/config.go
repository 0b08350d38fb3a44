package projector

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FillBehavior 播放停止后视口的状态
type FillBehavior int

const (
	// FillHoldEnd 停在最后显示的帧
	FillHoldEnd FillBehavior = iota
	// FillStop 回到第一帧
	FillStop
)

func (f FillBehavior) String() string {
	if f == FillStop {
		return "stop"
	}
	return "hold_end"
}

// ParseFillBehavior 解析 "hold_end" / "holdend" / "stop" / "reset"
func ParseFillBehavior(s string) (FillBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hold_end", "holdend", "hold":
		return FillHoldEnd, nil
	case "stop", "reset":
		return FillStop, nil
	}
	return FillHoldEnd, fmt.Errorf("parse fill behavior %q: %w", s, ErrInvalidConfig)
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (f *FillBehavior) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: fill must be a string: %w", node.Line, err)
	}
	parsed, err := ParseFillBehavior(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = parsed
	return nil
}

// MarshalYAML 实现 yaml.Marshaler
func (f FillBehavior) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// RepeatMode 决定 AutoReverse 下"一次重复"的含义
type RepeatMode int

const (
	// RepeatPerPass 每完成一次正向播放计数一次（反向播放不计数）
	RepeatPerPass RepeatMode = iota
	// RepeatPerCycle 正向+反向回到起点才计数一次
	RepeatPerCycle
)

func (m RepeatMode) String() string {
	if m == RepeatPerCycle {
		return "cycle"
	}
	return "pass"
}

// ParseRepeatMode 解析 "pass" / "cycle"
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pass":
		return RepeatPerPass, nil
	case "cycle":
		return RepeatPerCycle, nil
	}
	return RepeatPerPass, fmt.Errorf("parse repeat mode %q: %w", s, ErrInvalidConfig)
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (m *RepeatMode) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: repeat_mode must be a string: %w", node.Line, err)
	}
	parsed, err := ParseRepeatMode(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

// MarshalYAML 实现 yaml.Marshaler
func (m RepeatMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// 与宿主默认值保持一致
const (
	DefaultFrameRate   = 60.0
	DefaultFrameCount  = 1
	DefaultColumnCount = 1
)

// AnimationConfig 精灵图动画配置
//
// 由宿主的配置系统（YAML 文件、属性面板等）提供，两次 Tick 之间不变，
// 除非显式调用 Animator.Configure。
type AnimationConfig struct {
	FrameRate   float64        // 每秒推进的帧数，必须 > 0
	FrameCount  int            // 精灵图中的总帧数，>= 1
	ColumnCount int            // 每行列数，>= 1
	Repeat      RepeatBehavior // 重复策略
	AutoReverse bool           // 正向播放结束后反向播放
	Fill        FillBehavior   // 停止后的视口状态
	AutoStart   bool           // 接入精灵图后自动播放
	RepeatMode  RepeatMode     // AutoReverse 下的重复计数方式
}

// DefaultConfig 返回默认配置（60fps、单帧、无限循环、自动播放）
func DefaultConfig() AnimationConfig {
	return AnimationConfig{
		FrameRate:   DefaultFrameRate,
		FrameCount:  DefaultFrameCount,
		ColumnCount: DefaultColumnCount,
		Repeat:      Forever(),
		Fill:        FillHoldEnd,
		AutoStart:   true,
	}
}

// Validate 校验配置
func (c AnimationConfig) Validate() error {
	if math.IsNaN(c.FrameRate) || math.IsInf(c.FrameRate, 0) || c.FrameRate <= 0 {
		return &InvalidConfigError{Field: "FrameRate", Value: c.FrameRate, Reason: "must be a positive number"}
	}
	if float64(time.Second)/c.FrameRate >= float64(MaxDuration) {
		return &InvalidConfigError{Field: "FrameRate", Value: c.FrameRate, Reason: "frame interval out of range"}
	}
	if c.FrameCount < 1 {
		return &InvalidConfigError{Field: "FrameCount", Value: c.FrameCount, Reason: "must be at least 1"}
	}
	if c.ColumnCount < 1 {
		return &InvalidConfigError{Field: "ColumnCount", Value: c.ColumnCount, Reason: "must be at least 1"}
	}
	if c.Fill != FillHoldEnd && c.Fill != FillStop {
		return &InvalidConfigError{Field: "Fill", Value: int(c.Fill), Reason: "unknown fill behavior"}
	}
	if c.RepeatMode != RepeatPerPass && c.RepeatMode != RepeatPerCycle {
		return &InvalidConfigError{Field: "RepeatMode", Value: int(c.RepeatMode), Reason: "unknown repeat mode"}
	}
	return c.Repeat.Validate()
}

// RowCount 行数 = ceil(FrameCount / ColumnCount)
func (c AnimationConfig) RowCount() int {
	if c.ColumnCount < 1 {
		return 1
	}
	return (c.FrameCount + c.ColumnCount - 1) / c.ColumnCount
}

// FrameInterval 相邻两帧之间的时间间隔
func (c AnimationConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return 0
	}
	interval := float64(time.Second) / c.FrameRate
	if interval >= float64(MaxDuration) {
		return MaxDuration
	}
	return time.Duration(interval)
}

// mulDuration 饱和乘法，溢出时返回 MaxDuration
func mulDuration(n int, d time.Duration) time.Duration {
	if n <= 0 || d <= 0 {
		return 0
	}
	if d > MaxDuration/time.Duration(n) {
		return MaxDuration
	}
	return time.Duration(n) * d
}

// PassDuration 一次正向播放的时长（不含重复）
func (c AnimationConfig) PassDuration() time.Duration {
	return mulDuration(c.FrameCount, c.FrameInterval())
}

// TotalDuration 计入重复后的总时长
//
// Forever 返回 MaxDuration；Duration 策略返回其时长；
// Count 策略为 n 次播放的时长，RepeatPerCycle + AutoReverse 时一次包含往返。
func (c AnimationConfig) TotalDuration() time.Duration {
	switch c.Repeat.Kind {
	case RepeatDuration:
		return c.Repeat.Duration
	case RepeatCount:
		once := c.PassDuration()
		if c.AutoReverse && c.RepeatMode == RepeatPerCycle {
			once = mulDuration(2, once)
		}
		return mulDuration(c.Repeat.Count, once)
	default:
		return MaxDuration
	}
}

// geometryChanged 判断两个配置是否影响网格几何
func (c AnimationConfig) geometryChanged(other AnimationConfig) bool {
	return c.FrameCount != other.FrameCount || c.ColumnCount != other.ColumnCount
}
