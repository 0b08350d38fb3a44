package systems

import (
	"log"
	"time"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/ecs"
)

// ProjectorSystem 每帧驱动所有精灵图动画器
type ProjectorSystem struct {
	entityManager *ecs.EntityManager
}

// NewProjectorSystem 创建精灵图动画系统
func NewProjectorSystem(em *ecs.EntityManager) *ProjectorSystem {
	return &ProjectorSystem{
		entityManager: em,
	}
}

// Update 把本帧经过的时间交给每个动画器
//
// 参数：
//   - deltaTime: 距上一帧经过的秒数
//
// 返回本帧播放完成的实体 ID（按 ID 升序）。
func (s *ProjectorSystem) Update(deltaTime float64) []ecs.EntityID {
	dt := time.Duration(deltaTime * float64(time.Second))
	if dt <= 0 {
		return nil
	}

	var completed []ecs.EntityID
	entities := ecs.GetEntitiesWith1[*components.ProjectorComponent](s.entityManager)
	for _, id := range entities {
		comp, ok := ecs.GetComponent[*components.ProjectorComponent](s.entityManager, id)
		if !ok || comp.Animator == nil {
			continue
		}

		result := comp.Animator.Tick(dt)
		if result.Completed {
			log.Printf("[ProjectorSystem] Entity %d (%s) completed (repeat=%s)",
				id, comp.Name, comp.Animator.Config().Repeat)
			completed = append(completed, id)
		}
	}
	return completed
}
