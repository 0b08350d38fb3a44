package projector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RepeatKind 重复策略类型
type RepeatKind int

const (
	// RepeatForever 无限循环
	RepeatForever RepeatKind = iota
	// RepeatCount 播放固定次数
	RepeatCount
	// RepeatDuration 播放固定时长
	RepeatDuration
)

// MaxDuration 表示"无限"时长（Forever 策略的总时长）
const MaxDuration = time.Duration(math.MaxInt64)

// RepeatBehavior 描述动画何时自行停止
//
// 零值等价于 Forever。字符串形式只在配置解析时处理一次：
//   - "forever"
//   - "3x"（播放 3 次）
//   - "500ms" / "1.5s"（Go 时长格式）
//   - "0:0:5" / "00:00:01.500"（时:分:秒 格式）
type RepeatBehavior struct {
	Kind     RepeatKind
	Count    int
	Duration time.Duration
}

// Forever 返回无限循环策略
func Forever() RepeatBehavior {
	return RepeatBehavior{Kind: RepeatForever}
}

// Times 返回播放 n 次的策略
func Times(n int) RepeatBehavior {
	return RepeatBehavior{Kind: RepeatCount, Count: n}
}

// For 返回播放固定时长的策略
func For(d time.Duration) RepeatBehavior {
	return RepeatBehavior{Kind: RepeatDuration, Duration: d}
}

// HasCount 是否为固定次数策略
func (r RepeatBehavior) HasCount() bool { return r.Kind == RepeatCount }

// HasDuration 是否为固定时长策略
func (r RepeatBehavior) HasDuration() bool { return r.Kind == RepeatDuration }

// IsForever 是否为无限循环
func (r RepeatBehavior) IsForever() bool { return r.Kind == RepeatForever }

// Validate 校验策略参数
func (r RepeatBehavior) Validate() error {
	switch r.Kind {
	case RepeatForever:
		return nil
	case RepeatCount:
		if r.Count < 1 {
			return &InvalidConfigError{Field: "Repeat", Value: r.Count, Reason: "repeat count must be positive"}
		}
		return nil
	case RepeatDuration:
		if r.Duration <= 0 {
			return &InvalidConfigError{Field: "Repeat", Value: r.Duration, Reason: "repeat duration must be positive"}
		}
		return nil
	default:
		return &InvalidConfigError{Field: "Repeat", Value: int(r.Kind), Reason: "unknown repeat kind"}
	}
}

func (r RepeatBehavior) String() string {
	switch r.Kind {
	case RepeatCount:
		return strconv.Itoa(r.Count) + "x"
	case RepeatDuration:
		return r.Duration.String()
	default:
		return "forever"
	}
}

// ParseRepeatBehavior 解析重复策略字符串
func ParseRepeatBehavior(s string) (RepeatBehavior, error) {
	v := strings.TrimSpace(s)
	if v == "" || strings.EqualFold(v, "forever") {
		return Forever(), nil
	}

	// "3x" / "3X"
	if n, ok := strings.CutSuffix(strings.ToLower(v), "x"); ok {
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return RepeatBehavior{}, fmt.Errorf("parse repeat count %q: %w", s, ErrInvalidConfig)
		}
		r := Times(count)
		if err := r.Validate(); err != nil {
			return RepeatBehavior{}, err
		}
		return r, nil
	}

	// "0:0:5" 时:分:秒
	if strings.Contains(v, ":") {
		d, err := parseClockDuration(v)
		if err != nil {
			return RepeatBehavior{}, fmt.Errorf("parse repeat duration %q: %w", s, err)
		}
		r := For(d)
		if err := r.Validate(); err != nil {
			return RepeatBehavior{}, err
		}
		return r, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return RepeatBehavior{}, fmt.Errorf("parse repeat behavior %q: %w", s, ErrInvalidConfig)
	}
	r := For(d)
	if err := r.Validate(); err != nil {
		return RepeatBehavior{}, err
	}
	return r, nil
}

// parseClockDuration 解析 "h:m:s[.fff]" 格式
func parseClockDuration(v string) (time.Duration, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, ErrInvalidConfig
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, ErrInvalidConfig
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, ErrInvalidConfig
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, ErrInvalidConfig
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(math.Round(seconds*float64(time.Second)))
	return total, nil
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (r *RepeatBehavior) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: repeat must be a string: %w", node.Line, err)
	}
	parsed, err := ParseRepeatBehavior(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = parsed
	return nil
}

// MarshalYAML 实现 yaml.Marshaler
func (r RepeatBehavior) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}
