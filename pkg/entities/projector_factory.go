package entities

import (
	"fmt"
	"log"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/config"
	"github.com/gonewx/projector/pkg/ecs"
	"github.com/gonewx/projector/pkg/projector"
	"github.com/hajimehoshi/ebiten/v2"
)

// NewProjectorEntity 创建一个精灵图动画实体
//
// 参数：
//   - em: EntityManager 实例
//   - entry: 配置文件中的动画条目
//   - sheet: 已加载的精灵图，nil 表示加载失败
//
// 返回：
//   - ecs.EntityID: 创建的实体 ID
//   - error: 配置非法时返回错误，此时不创建实体
//
// 精灵图缺失或无法读取时实体照常创建，动画器处于空白停止状态。
// 配置未指定显示尺寸时使用精灵图单元格的像素尺寸。
func NewProjectorEntity(em *ecs.EntityManager, entry *config.ProjectorEntry, sheet *ebiten.Image) (ecs.EntityID, error) {
	cfg, err := entry.AnimationConfig()
	if err != nil {
		return 0, fmt.Errorf("projector %q: %w", entry.Name, err)
	}
	anim, err := projector.NewAnimator(entry.Name, cfg)
	if err != nil {
		return 0, fmt.Errorf("projector %q: %w", entry.Name, err)
	}

	view := &components.SpriteView{}
	anim.SetSink(view)

	width, height := entry.View.Width, entry.View.Height
	if sheet == nil {
		if width > 0 && height > 0 {
			anim.SetViewSize(width, height)
		}
		anim.FailSource(fmt.Errorf("sheet %s not loaded", entry.Sheet))
	} else {
		info, err := projector.SheetFromImage(sheet)
		if err != nil {
			anim.FailSource(err)
		} else {
			if width <= 0 || height <= 0 {
				width = float64(info.PixelWidth) / float64(cfg.ColumnCount)
				height = float64(info.PixelHeight) / float64(cfg.RowCount())
			}
			anim.SetViewSize(width, height)
			anim.SetSource(info)
		}
	}

	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.ProjectorComponent{
		Name:     entry.Name,
		Animator: anim,
		View:     view,
	})
	ecs.AddComponent(em, id, &components.SpriteComponent{
		Image: sheet,
		Path:  entry.Sheet,
	})
	ecs.AddComponent(em, id, &components.PositionComponent{
		X: entry.Position.X,
		Y: entry.Position.Y,
	})
	ecs.AddComponent(em, id, &components.VisibilityComponent{})

	log.Printf("[ProjectorFactory] Created %s (entity=%d, %s)", entry.Name, id, anim)
	return id, nil
}
