package projector

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig 配置校验失败（帧数、列数、帧率等非法）
	ErrInvalidConfig = errors.New("invalid projector config")

	// ErrSourceAttach 精灵图源无法使用（空尺寸、非法 DPI 等）
	ErrSourceAttach = errors.New("sprite sheet attach failed")
)

// InvalidConfigError 描述一个非法的配置字段
//
// Configure 返回该错误时，动画器的状态保持不变。
type InvalidConfigError struct {
	Field  string // 字段名，如 "FrameCount"
	Value  any    // 非法值
	Reason string // 失败原因
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid projector config: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrInvalidConfig) 成立
func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// SourceAttachError 描述精灵图源接入失败的具体原因
//
// 该错误不会从 SetSource 返回，动画器会回退到 1×1 的空白视口并停止播放，
// 调用方通过 Animator.SourceErr() 读取失败原因。
type SourceAttachError struct {
	Reason string
	Err    error // 可选的底层错误
}

func (e *SourceAttachError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sprite sheet attach failed: %s: %v", e.Reason, e.Err)
	}
	return "sprite sheet attach failed: " + e.Reason
}

// Is 使 errors.Is(err, ErrSourceAttach) 成立
func (e *SourceAttachError) Is(target error) bool {
	return target == ErrSourceAttach
}

func (e *SourceAttachError) Unwrap() error {
	return e.Err
}
