package projector

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot 可持久化的播放状态
type Snapshot struct {
	Frame     int           `yaml:"frame"`
	Direction Direction     `yaml:"direction"`
	Repeats   int           `yaml:"repeats"`
	Elapsed   time.Duration `yaml:"elapsed"`
	Playing   bool          `yaml:"playing"`
}

// MarshalYAML 实现 yaml.Marshaler
func (d Direction) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (d *Direction) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch raw {
	case "", "forward":
		*d = Forward
	case "backward":
		*d = Backward
	default:
		return fmt.Errorf("line %d: unknown direction %q", node.Line, raw)
	}
	return nil
}

// Snapshot 导出当前播放状态
func (a *Animator) Snapshot() Snapshot {
	return Snapshot{
		Frame:     a.frame,
		Direction: a.dir,
		Repeats:   a.repeats,
		Elapsed:   a.sinceStart,
		Playing:   a.playing,
	}
}

// Restore 恢复播放状态
//
// 快照必须与当前配置兼容（帧索引在范围内），否则返回错误且状态不变。
// 快照标记为播放中且已接入精灵图时会恢复播放；
// 否则正在进行的播放被停止，其完成信号以"未完成"解析。
func (a *Animator) Restore(s Snapshot) error {
	if s.Frame < 0 || s.Frame >= a.cfg.FrameCount {
		return fmt.Errorf("restore %s: frame %d outside [0,%d): %w", a.name, s.Frame, a.cfg.FrameCount, ErrInvalidConfig)
	}
	if s.Repeats < 0 || s.Elapsed < 0 {
		return fmt.Errorf("restore %s: negative counters: %w", a.name, ErrInvalidConfig)
	}
	if s.Direction != Forward && s.Direction != Backward {
		return fmt.Errorf("restore %s: unknown direction %d: %w", a.name, int(s.Direction), ErrInvalidConfig)
	}

	wasPlaying := a.playing
	a.halt()
	a.frame = s.Frame
	a.col = s.Frame % a.cfg.ColumnCount
	a.row = s.Frame / a.cfg.ColumnCount
	a.dir = s.Direction
	a.publishOffset()

	if s.Playing {
		a.Start()
	}
	if wasPlaying && !a.playing {
		a.completion.resolve(false)
	}
	a.repeats = s.Repeats
	if a.cfg.Repeat.HasDuration() {
		a.sinceStart = s.Elapsed
	}
	return nil
}
