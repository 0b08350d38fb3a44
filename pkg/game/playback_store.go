package game

import (
	"fmt"
	"log"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/ecs"
	"github.com/gonewx/projector/pkg/projector"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 存储路径常量
const playbackObject = "playback"

// PlaybackStore 按动画名称保存和恢复播放状态
//
// 每个动画的快照以 YAML 保存为 gdata 的一个属性。
// gdataManager 为 nil 时只在内存中保存（降级模式）。
type PlaybackStore struct {
	gdataManager *gdata.Manager
	memory       map[string]projector.Snapshot
}

// NewPlaybackStore 创建播放状态存储
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存）
func NewPlaybackStore(gdataManager *gdata.Manager) *PlaybackStore {
	return &PlaybackStore{
		gdataManager: gdataManager,
		memory:       make(map[string]projector.Snapshot),
	}
}

// Save 保存一个动画的快照
func (ps *PlaybackStore) Save(name string, snap projector.Snapshot) error {
	if name == "" {
		return fmt.Errorf("cannot save playback without a name")
	}
	if ps.gdataManager == nil {
		ps.memory[name] = snap
		return nil
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal playback %s: %w", name, err)
	}
	if err := ps.gdataManager.SaveObjectProp(playbackObject, name, data); err != nil {
		return fmt.Errorf("failed to save playback %s: %w", name, err)
	}
	return nil
}

// Load 读取一个动画的快照
//
// 返回：
//   - projector.Snapshot: 保存的快照
//   - bool: 是否存在快照
//   - error: 读取或反序列化失败
func (ps *PlaybackStore) Load(name string) (projector.Snapshot, bool, error) {
	if ps.gdataManager == nil {
		snap, ok := ps.memory[name]
		return snap, ok, nil
	}

	if !ps.gdataManager.ObjectPropExists(playbackObject, name) {
		return projector.Snapshot{}, false, nil
	}
	data, err := ps.gdataManager.LoadObjectProp(playbackObject, name)
	if err != nil {
		return projector.Snapshot{}, false, fmt.Errorf("failed to load playback %s: %w", name, err)
	}

	var snap projector.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return projector.Snapshot{}, false, fmt.Errorf("failed to unmarshal playback %s: %w", name, err)
	}
	return snap, true, nil
}

// SaveAll 保存所有实体的播放状态，返回保存的数量
func (ps *PlaybackStore) SaveAll(em *ecs.EntityManager) (int, error) {
	saved := 0
	for _, id := range ecs.GetEntitiesWith1[*components.ProjectorComponent](em) {
		comp, ok := ecs.GetComponent[*components.ProjectorComponent](em, id)
		if !ok || comp.Animator == nil {
			continue
		}
		if err := ps.Save(comp.Name, comp.Animator.Snapshot()); err != nil {
			return saved, err
		}
		saved++
	}
	log.Printf("[PlaybackStore] Saved %d playback snapshots", saved)
	return saved, nil
}

// RestoreAll 把保存的快照恢复到同名实体，返回恢复的数量
//
// 与当前配置不兼容的快照会被跳过并记录日志。
func (ps *PlaybackStore) RestoreAll(em *ecs.EntityManager) int {
	restored := 0
	for _, id := range ecs.GetEntitiesWith1[*components.ProjectorComponent](em) {
		comp, ok := ecs.GetComponent[*components.ProjectorComponent](em, id)
		if !ok || comp.Animator == nil {
			continue
		}
		snap, found, err := ps.Load(comp.Name)
		if err != nil {
			log.Printf("[PlaybackStore] Warning: %v", err)
			continue
		}
		if !found {
			continue
		}
		if err := comp.Animator.Restore(snap); err != nil {
			log.Printf("[PlaybackStore] Warning: skipping stale snapshot: %v", err)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Printf("[PlaybackStore] Restored %d playback snapshots", restored)
	}
	return restored
}
