package game

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/ecs"
	"github.com/gonewx/projector/pkg/projector"
	"github.com/quasilyte/gdata/v2"
)

func openTestGdata(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return manager
}

func newStoreAnimator(t *testing.T, em *ecs.EntityManager, name string, cfg projector.AnimationConfig) *projector.Animator {
	t.Helper()
	anim, err := projector.NewAnimator(name, cfg)
	if err != nil {
		t.Fatalf("NewAnimator() error: %v", err)
	}
	anim.SetViewSize(16, 16)
	anim.SetSource(projector.NewSheet(64, 32))

	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.ProjectorComponent{Name: name, Animator: anim})
	return anim
}

func storeTestConfig() projector.AnimationConfig {
	cfg := projector.DefaultConfig()
	cfg.FrameRate = 10
	cfg.FrameCount = 8
	cfg.ColumnCount = 4
	return cfg
}

// TestPlaybackStoreRoundTrip 测试快照写入 gdata 后可读回
func TestPlaybackStoreRoundTrip(t *testing.T) {
	store := NewPlaybackStore(openTestGdata(t, "test_playback"))

	if _, found, err := store.Load("missing"); found || err != nil {
		t.Errorf("Load(missing) = found %v, err %v; want not found", found, err)
	}

	want := projector.Snapshot{
		Frame:     5,
		Direction: projector.Backward,
		Repeats:   2,
		Elapsed:   1500 * time.Millisecond,
		Playing:   true,
	}
	if err := store.Save("flag", want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, found, err := store.Load("flag")
	if err != nil || !found {
		t.Fatalf("Load() = found %v, err %v", found, err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	if err := store.Save("", want); err == nil {
		t.Error("Expected error when saving without a name")
	}
}

// TestPlaybackStoreMemoryMode 测试 nil manager 的降级模式
func TestPlaybackStoreMemoryMode(t *testing.T) {
	store := NewPlaybackStore(nil)
	snap := projector.Snapshot{Frame: 3}
	if err := store.Save("spinner", snap); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, found, err := store.Load("spinner")
	if err != nil || !found || got != snap {
		t.Errorf("Load() = %+v, %v, %v; want %+v", got, found, err, snap)
	}
}

// TestPlaybackStoreSaveAllRestoreAll 测试整批保存与恢复
func TestPlaybackStoreSaveAllRestoreAll(t *testing.T) {
	manager := openTestGdata(t, "test_playback_all")
	store := NewPlaybackStore(manager)

	em := ecs.NewEntityManager()
	anim := newStoreAnimator(t, em, "walker", storeTestConfig())
	for i := 0; i < 6; i++ {
		anim.Tick(100 * time.Millisecond)
	}
	if anim.Frame() != 6 {
		t.Fatalf("Expected frame 6 before save, got %d", anim.Frame())
	}

	saved, err := store.SaveAll(em)
	if err != nil || saved != 1 {
		t.Fatalf("SaveAll() = %d, %v", saved, err)
	}

	// 新的实体管理器模拟重新启动
	em2 := ecs.NewEntityManager()
	fresh := newStoreAnimator(t, em2, "walker", storeTestConfig())
	other := newStoreAnimator(t, em2, "unsaved", storeTestConfig())

	if n := NewPlaybackStore(manager).RestoreAll(em2); n != 1 {
		t.Errorf("RestoreAll() = %d, want 1", n)
	}
	if fresh.Frame() != 6 || !fresh.IsPlaying() {
		t.Errorf("Expected restored frame 6 and playing, got frame=%d playing=%v", fresh.Frame(), fresh.IsPlaying())
	}
	if col, row := fresh.Cell(); col != 2 || row != 1 {
		t.Errorf("Expected cell (2,1), got (%d,%d)", col, row)
	}
	if other.Frame() != 0 {
		t.Errorf("Expected unsaved animator untouched, got frame %d", other.Frame())
	}
}

// TestPlaybackStoreSkipsStaleSnapshot 与当前配置不兼容的快照被跳过
func TestPlaybackStoreSkipsStaleSnapshot(t *testing.T) {
	store := NewPlaybackStore(nil)
	if err := store.Save("short", projector.Snapshot{Frame: 7}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	em := ecs.NewEntityManager()
	cfg := storeTestConfig()
	cfg.FrameCount = 4
	anim := newStoreAnimator(t, em, "short", cfg)

	if n := store.RestoreAll(em); n != 0 {
		t.Errorf("RestoreAll() = %d, want 0", n)
	}
	if anim.Frame() != 0 {
		t.Errorf("Expected frame 0, got %d", anim.Frame())
	}

	err := anim.Restore(projector.Snapshot{Frame: 7})
	if !errors.Is(err, projector.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
