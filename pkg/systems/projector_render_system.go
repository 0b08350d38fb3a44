package systems

import (
	"image"
	"math"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
)

// ProjectorRenderSystem 把精灵图当前单元格绘制到屏幕
//
// 整张精灵图先按几何缩放，再按动画器给出的平移量移动，
// 最后裁剪到实体所在的单元格区域。
type ProjectorRenderSystem struct {
	entityManager *ecs.EntityManager
}

// NewProjectorRenderSystem 创建渲染系统
func NewProjectorRenderSystem(em *ecs.EntityManager) *ProjectorRenderSystem {
	return &ProjectorRenderSystem{
		entityManager: em,
	}
}

// Draw 绘制所有可见的精灵图动画
func (s *ProjectorRenderSystem) Draw(screen *ebiten.Image) {
	entities := ecs.GetEntitiesWith3[
		*components.ProjectorComponent,
		*components.SpriteComponent,
		*components.PositionComponent,
	](s.entityManager)

	for _, id := range entities {
		if vis, ok := ecs.GetComponent[*components.VisibilityComponent](s.entityManager, id); ok && vis.Hidden {
			continue
		}
		comp, _ := ecs.GetComponent[*components.ProjectorComponent](s.entityManager, id)
		sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		if sprite.Image == nil || comp.View == nil {
			continue
		}

		clip, geoM, ok := cellTransform(comp.View, pos)
		if !ok {
			continue
		}
		dst, ok := screen.SubImage(clip).(*ebiten.Image)
		if !ok {
			continue
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM = geoM
		op.Filter = ebiten.FilterNearest
		dst.DrawImage(sprite.Image, op)
	}
}

// cellTransform 计算裁剪矩形和精灵图变换
//
// 空白视口或零尺寸单元格返回 ok=false。
func cellTransform(view *components.SpriteView, pos *components.PositionComponent) (image.Rectangle, ebiten.GeoM, bool) {
	g := view.Geometry
	var geoM ebiten.GeoM
	if g.Blank || g.CellWidth <= 0 || g.CellHeight <= 0 {
		return image.Rectangle{}, geoM, false
	}

	clip := image.Rect(
		int(math.Floor(pos.X)),
		int(math.Floor(pos.Y)),
		int(math.Ceil(pos.X+g.CellWidth)),
		int(math.Ceil(pos.Y+g.CellHeight)),
	)

	geoM.Scale(g.ScaleX, g.ScaleY)
	geoM.Translate(pos.X+view.OffsetX, pos.Y+view.OffsetY)
	return clip, geoM, true
}
