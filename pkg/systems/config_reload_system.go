package systems

import (
	"log"
	"path/filepath"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/config"
	"github.com/gonewx/projector/pkg/ecs"
)

// ConfigReloadSystem 在配置文件变化时把新参数应用到已有的动画器
//
// 文件事件由 config.Watcher 在后台收集，Update 在更新线程中非阻塞地读取，
// 保证动画器只在一个线程中被修改。
type ConfigReloadSystem struct {
	entityManager *ecs.EntityManager
	watcher       *config.Watcher // nil 表示未启用热重载
	path          string
}

// NewConfigReloadSystem 创建热重载系统
func NewConfigReloadSystem(em *ecs.EntityManager, watcher *config.Watcher, path string) *ConfigReloadSystem {
	return &ConfigReloadSystem{
		entityManager: em,
		watcher:       watcher,
		path:          filepath.Clean(path),
	}
}

// Update 处理已到达的文件事件
func (s *ConfigReloadSystem) Update(deltaTime float64) {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-s.watcher.Events:
			if !ok {
				s.watcher = nil
				return
			}
			if filepath.Clean(name) != s.path {
				continue
			}
			if err := s.Reload(); err != nil {
				log.Printf("[ConfigReloadSystem] Keeping previous settings: %v", err)
			}
		case err, ok := <-s.watcher.Errors:
			if ok {
				log.Printf("[ConfigReloadSystem] Watcher error: %v", err)
			}
			return
		default:
			return
		}
	}
}

// Reload 重新读取配置文件并应用
func (s *ConfigReloadSystem) Reload() error {
	file, err := config.LoadProjectorConfig(s.path)
	if err != nil {
		return err
	}
	applied := s.Apply(file)
	log.Printf("[ConfigReloadSystem] Reloaded %s, %d projectors updated", s.path, applied)
	return nil
}

// Apply 按名称把配置条目应用到实体，返回更新的实体数
//
// 只有动画参数、显示尺寸和位置会被更新；精灵图路径的变化需要重新创建实体。
// 动画参数未变化的实体不会被重置。
func (s *ConfigReloadSystem) Apply(file *config.ProjectorConfigFile) int {
	applied := 0
	entities := ecs.GetEntitiesWith1[*components.ProjectorComponent](s.entityManager)
	for _, id := range entities {
		comp, ok := ecs.GetComponent[*components.ProjectorComponent](s.entityManager, id)
		if !ok || comp.Animator == nil {
			continue
		}
		entry, ok := file.Find(comp.Name)
		if !ok {
			continue
		}

		cfg, err := entry.AnimationConfig()
		if err != nil {
			log.Printf("[ConfigReloadSystem] %s: %v", comp.Name, err)
			continue
		}
		if cfg != comp.Animator.Config() {
			if err := comp.Animator.Configure(cfg); err != nil {
				log.Printf("[ConfigReloadSystem] %s: %v", comp.Name, err)
				continue
			}
		}

		if entry.View.Width > 0 && entry.View.Height > 0 {
			g := comp.Animator.Geometry()
			if g.CellWidth != entry.View.Width || g.CellHeight != entry.View.Height {
				comp.Animator.SetViewSize(entry.View.Width, entry.View.Height)
			}
		}

		if pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, id); ok {
			pos.X, pos.Y = entry.Position.X, entry.Position.Y
		}
		applied++
	}
	return applied
}
