package projector

import (
	"context"
	"sync"
	"sync/atomic"
)

// Completion 一次播放的完成信号
//
// 由动画器在停止时解析（自然播放完成或被 Stop 中断），可在任意 goroutine 中等待。
// 等待方取消 ctx 只会放弃等待，不影响播放状态。
type Completion struct {
	done      chan struct{}
	once      sync.Once
	completed atomic.Bool
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// resolvedCompletion 返回一个已解析、未完成的信号（无法开始播放时使用）
func resolvedCompletion() *Completion {
	c := newCompletion()
	c.resolve(false)
	return c
}

// resolve 解析信号，completed 表示是否因重复策略耗尽而结束
func (c *Completion) resolve(completed bool) {
	c.once.Do(func() {
		c.completed.Store(completed)
		close(c.done)
	})
}

// Done 返回在播放结束时关闭的 channel
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// IsResolved 播放是否已结束
func (c *Completion) IsResolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Completed 是否因重复策略耗尽而结束（被 Stop 中断时为 false）
func (c *Completion) Completed() bool {
	return c.completed.Load()
}

// Wait 阻塞直到播放结束或 ctx 被取消
//
// 返回：
//   - nil: 播放已结束（通过 Completed() 区分完成与中断）
//   - ctx.Err(): 等待被取消
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
