// Package projector 实现与宿主无关的精灵图动画状态机
//
// 动画器按固定帧率在精灵图网格上移动视口：宿主每帧调用一次 Tick(dt)，
// 配置变化时调用 Configure，精灵图变化时调用 SetSource。
// 动画器本身不持有 goroutine，所有调用都应来自宿主的更新线程；
// 只有 Completion 可以在其它 goroutine 中等待。
package projector

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// Direction 播放方向
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// State 播放状态
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// TickResult 单次 Tick 的输出
type TickResult struct {
	Advanced  bool    // 本次推进了一帧
	Completed bool    // 本次因重复策略耗尽而停止
	OffsetX   float64 // 当前视口平移量
	OffsetY   float64
}

// Animator 精灵图动画器
type Animator struct {
	name     string
	cfg      AnimationConfig
	interval time.Duration

	sheet     *Sheet
	sourceErr error
	cellW     float64
	cellH     float64
	geometry  Geometry
	sink      Sink

	// 播放状态
	frame      int
	col        int
	row        int
	dir        Direction
	repeats    int
	sinceFrame time.Duration
	sinceStart time.Duration
	playing    bool

	completion  *Completion
	onCompleted []func()
}

// NewAnimator 创建动画器
//
// 参数：
//   - name: 用于日志的名称
//   - cfg: 动画配置，非法时返回 *InvalidConfigError
func NewAnimator(name string, cfg AnimationConfig) (*Animator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Animator{
		name:       name,
		cfg:        cfg,
		interval:   cfg.FrameInterval(),
		cellW:      1,
		cellH:      1,
		completion: resolvedCompletion(),
	}
	a.geometry = computeGeometry(cfg, a.cellW, a.cellH, nil)
	return a, nil
}

// Name 动画器名称
func (a *Animator) Name() string { return a.name }

// Config 当前配置
func (a *Animator) Config() AnimationConfig { return a.cfg }

// SetSink 设置渲染输出，并立即推送当前几何与平移量
func (a *Animator) SetSink(s Sink) {
	a.sink = s
	if s != nil {
		s.SetGeometry(a.geometry)
		x, y := a.Offset()
		s.SetOffset(x, y)
	}
}

// OnCompleted 注册完成回调（在宿主更新线程中同步调用）
func (a *Animator) OnCompleted(fn func()) {
	if fn == nil {
		return
	}
	a.onCompleted = append(a.onCompleted, fn)
}

// Configure 应用新配置
//
// 校验失败时返回 *InvalidConfigError，状态保持不变。
// 帧数或列数变化会停止播放、重置视口并重新计算几何，
// 然后在 AutoStart 或之前正在播放时重新开始。
func (a *Animator) Configure(cfg AnimationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	old := a.cfg
	a.cfg = cfg
	a.interval = cfg.FrameInterval()

	if cfg.Repeat.HasDuration() && !old.Repeat.HasDuration() {
		a.sinceStart = 0
	}

	if old.geometryChanged(cfg) {
		a.updateGeometry(true)
		return nil
	}

	if old.Fill != cfg.Fill && cfg.Fill == FillStop && !a.playing {
		a.repeats = 0
		a.resetViewport()
	}
	return nil
}

// SetViewSize 设置单元格的显示尺寸（控件实际尺寸），会重置动画
func (a *Animator) SetViewSize(width, height float64) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	a.cellW, a.cellH = width, height
	a.updateGeometry(true)
}

// SetSource 接入新的精灵图
//
// 停止播放并重置状态，按精灵图尺寸重新计算几何，
// 在 AutoStart 或之前正在播放时重新开始。
// 传入 nil 表示移除精灵图。精灵图非法时回退到 1×1 空白视口并保持停止，
// 失败原因通过 SourceErr() 读取，不会返回给调用方。
func (a *Animator) SetSource(sheet *Sheet) {
	wasPlaying := a.playing
	a.halt()
	a.resetViewport()

	if sheet == nil {
		a.sheet = nil
		a.sourceErr = nil
		a.setGeometry(computeGeometry(a.cfg, a.cellW, a.cellH, nil))
		a.completion.resolve(false)
		return
	}

	if err := sheet.validate(); err != nil {
		a.failSource(err)
		return
	}

	s := *sheet
	a.sheet = &s
	a.sourceErr = nil
	a.setGeometry(computeGeometry(a.cfg, a.cellW, a.cellH, a.sheet))

	if a.cfg.AutoStart || wasPlaying {
		a.Start()
	} else {
		a.completion.resolve(false)
	}
}

// FailSource 由宿主在读取精灵图失败时调用，进入空白停止状态
func (a *Animator) FailSource(err error) {
	a.halt()
	a.resetViewport()
	var attachErr *SourceAttachError
	if !errors.As(err, &attachErr) {
		err = &SourceAttachError{Reason: "source unavailable", Err: err}
	}
	a.failSource(err)
}

func (a *Animator) failSource(err error) {
	a.playing = false
	a.sheet = nil
	a.sourceErr = err
	a.setGeometry(blankGeometry())
	a.completion.resolve(false)
	log.Printf("[Projector] %s: source rejected, falling back to blank viewport: %v", a.name, err)
}

// SourceErr 最近一次接入精灵图失败的原因，成功接入后清空
func (a *Animator) SourceErr() error { return a.sourceErr }

// HasSource 是否已接入有效的精灵图
func (a *Animator) HasSource() bool { return a.sheet != nil }

// Start 开始或继续播放
//
// 已在播放或没有精灵图时返回 false。
// 计时器清零，当前帧保持不变（继续播放）。
func (a *Animator) Start() bool {
	if a.playing || a.sheet == nil {
		return false
	}
	a.playing = true
	a.sinceFrame = 0
	a.sinceStart = 0
	if a.completion.IsResolved() {
		a.completion = newCompletion()
	}
	log.Printf("[Projector] %s: playing (frame=%d, repeat=%s, reverse=%v)", a.name, a.frame, a.cfg.Repeat, a.cfg.AutoReverse)
	return true
}

// Play 开始播放并返回本次播放的完成信号
//
// 无法开始播放（没有精灵图）时返回一个已解析的信号，Completed() 为 false。
// 已在播放时返回当前播放的信号。
func (a *Animator) Play() *Completion {
	if a.playing {
		return a.completion
	}
	if !a.Start() {
		return resolvedCompletion()
	}
	return a.completion
}

// Completion 当前（或最近一次）播放的完成信号
func (a *Animator) Completion() *Completion { return a.completion }

// Stop 停止播放
//
// 计时器和重复计数清零；FillStop 时回到第一帧。
// 当前播放的完成信号被解析（Completed() 为 false）。
func (a *Animator) Stop() {
	a.stop(false)
}

// SetPlaying 按布尔值开始或停止
func (a *Animator) SetPlaying(playing bool) {
	if playing {
		a.Start()
		return
	}
	a.Stop()
}

// Close 移除精灵图、停止播放并清空回调
func (a *Animator) Close() {
	a.SetSource(nil)
	a.onCompleted = nil
	a.sink = nil
}

func (a *Animator) stop(completed bool) {
	wasPlaying := a.playing
	a.halt()
	if a.cfg.Fill == FillStop {
		a.resetViewport()
	}
	a.completion.resolve(completed)
	if wasPlaying {
		log.Printf("[Projector] %s: stopped (frame=%d, completed=%v)", a.name, a.frame, completed)
	}
}

// halt 停止播放但不解析完成信号
func (a *Animator) halt() {
	a.playing = false
	a.sinceFrame = 0
	a.sinceStart = 0
	a.repeats = 0
}

// Tick 推进一个宿主帧
//
// dt 为距上次调用的真实时间。每次最多推进一帧，不足一帧间隔的时间会累积。
// 未播放或 dt <= 0 时不改变任何状态。
func (a *Animator) Tick(dt time.Duration) TickResult {
	if !a.playing || dt <= 0 {
		return a.result(false, false)
	}

	if a.cfg.Repeat.HasDuration() {
		a.sinceStart += dt
	}
	if a.exhausted() {
		a.stop(true)
		for _, fn := range a.onCompleted {
			fn()
		}
		return a.result(false, true)
	}

	a.sinceFrame += dt
	if a.sinceFrame < a.interval {
		return a.result(false, false)
	}
	a.sinceFrame = 0

	a.advance()
	a.publishOffset()
	return a.result(true, false)
}

func (a *Animator) result(advanced, completed bool) TickResult {
	x, y := a.Offset()
	return TickResult{Advanced: advanced, Completed: completed, OffsetX: x, OffsetY: y}
}

// exhausted 重复策略是否已耗尽
func (a *Animator) exhausted() bool {
	switch a.cfg.Repeat.Kind {
	case RepeatDuration:
		return a.sinceStart >= a.cfg.Repeat.Duration
	case RepeatCount:
		return a.repeats >= a.cfg.Repeat.Count
	}
	return false
}

// advance 沿当前方向移动一个单元格，帧索引与单元格同步步进
func (a *Animator) advance() {
	cols := a.cfg.ColumnCount

	if a.dir == Forward {
		a.frame++
		if a.frame < a.cfg.FrameCount {
			a.col++
			if a.col >= cols {
				a.col = 0
				a.row++
			}
			return
		}

		// 正向播放结束
		if !a.cfg.AutoReverse || a.cfg.RepeatMode == RepeatPerPass {
			a.repeats++
		}
		if a.cfg.AutoReverse {
			a.dir = Backward
			a.frame--
			return
		}
		a.frame, a.col, a.row = 0, 0, 0
		return
	}

	a.frame--
	if a.frame >= 0 {
		a.col--
		if a.col < 0 {
			a.col = cols - 1
			a.row--
		}
		return
	}

	// 反向播放回到起点
	a.frame, a.col, a.row = 0, 0, 0
	a.dir = Forward
	if a.cfg.RepeatMode == RepeatPerCycle {
		a.repeats++
	}
}

// resetViewport 回到第一帧
func (a *Animator) resetViewport() {
	a.frame, a.col, a.row = 0, 0, 0
	a.dir = Forward
	a.publishOffset()
}

func (a *Animator) publishOffset() {
	if a.sink != nil {
		x, y := a.Offset()
		a.sink.SetOffset(x, y)
	}
}

func (a *Animator) setGeometry(g Geometry) {
	a.geometry = g
	if a.sink != nil {
		a.sink.SetGeometry(g)
	}
}

// updateGeometry 重新计算网格几何；reset 时先停止并回到第一帧，之后按需恢复播放
func (a *Animator) updateGeometry(reset bool) {
	wasPlaying := a.playing
	if reset {
		a.halt()
		a.resetViewport()
	}

	if a.sourceErr != nil {
		// 空白视口保持不变，直到重新接入精灵图
		return
	}
	a.setGeometry(computeGeometry(a.cfg, a.cellW, a.cellH, a.sheet))

	if reset && a.sheet != nil && (a.cfg.AutoStart || wasPlaying) {
		a.Start()
	}
}

// State 当前播放状态
func (a *Animator) State() State {
	if a.playing {
		return Playing
	}
	return Stopped
}

// IsPlaying 是否正在播放
func (a *Animator) IsPlaying() bool { return a.playing }

// Frame 当前帧索引
func (a *Animator) Frame() int { return a.frame }

// Cell 当前单元格（列, 行）
func (a *Animator) Cell() (col, row int) { return a.col, a.row }

// Direction 当前播放方向
func (a *Animator) Direction() Direction { return a.dir }

// Repeats 已完成的重复次数
func (a *Animator) Repeats() int { return a.repeats }

// Elapsed 本次播放已经过的时间（仅 Duration 策略计时）
func (a *Animator) Elapsed() time.Duration { return a.sinceStart }

// Geometry 当前视口几何
func (a *Animator) Geometry() Geometry { return a.geometry }

// Offset 视口平移量 (-列×单元格宽, -行×单元格高)
func (a *Animator) Offset() (x, y float64) {
	return -float64(a.col) * a.cellW, -float64(a.row) * a.cellH
}

func (a *Animator) String() string {
	return fmt.Sprintf("%s[%s frame=%d cell=(%d,%d) dir=%s repeats=%d]",
		a.name, a.State(), a.frame, a.col, a.row, a.dir, a.repeats)
}
