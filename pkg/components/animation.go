package components

import (
	"github.com/gonewx/projector/pkg/projector"
)

// ProjectorComponent 把精灵图动画器挂到实体上
//
// 动画器由 ProjectorSystem 每帧驱动，View 接收动画器的输出供渲染系统绘制。
type ProjectorComponent struct {
	Name     string
	Animator *projector.Animator
	View     *SpriteView
}

// SpriteView 实现 projector.Sink，保存最近一次的平移量和视口几何
type SpriteView struct {
	OffsetX  float64
	OffsetY  float64
	Geometry projector.Geometry
}

// SetOffset 实现 projector.Sink
func (v *SpriteView) SetOffset(x, y float64) {
	v.OffsetX = x
	v.OffsetY = y
}

// SetGeometry 实现 projector.Sink
func (v *SpriteView) SetGeometry(g projector.Geometry) {
	v.Geometry = g
}

// PositionComponent 实体在屏幕上的左上角坐标
type PositionComponent struct {
	X, Y float64
}

// VisibilityComponent 控制实体是否绘制
type VisibilityComponent struct {
	Hidden bool
}
