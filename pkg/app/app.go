// Package app 提供精灵图动画展示程序的核心包装器
//
// 该包负责加载配置与精灵图、组装 ECS 系统，并实现 ebiten.Game 接口。
// cmd/projector_showcase 通过 NewApp() 启动。
package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // 支持 JPEG 格式精灵图
	_ "image/png"  // 支持 PNG 格式精灵图
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gonewx/projector/pkg/components"
	"github.com/gonewx/projector/pkg/config"
	"github.com/gonewx/projector/pkg/ecs"
	"github.com/gonewx/projector/pkg/entities"
	"github.com/gonewx/projector/pkg/game"
	"github.com/gonewx/projector/pkg/systems"
	"github.com/gonewx/projector/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/quasilyte/gdata/v2"
	_ "golang.org/x/image/bmp" // 支持 BMP 格式精灵图
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp" // 支持 WebP 格式精灵图
)

// 默认窗口尺寸
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 动画配置文件路径，精灵图路径相对于该文件所在目录
	ConfigPath string
	// Watch 监视配置文件变化并热重载
	Watch bool
	// AppName gdata 存储使用的应用名，为空则不持久化播放状态
	AppName string
	// Width/Height 逻辑屏幕尺寸，0 使用默认值
	Width  int
	Height int
}

// App 是展示程序的核心包装器，实现 ebiten.Game 接口
type App struct {
	entityManager   *ecs.EntityManager
	projectorSystem *systems.ProjectorSystem
	renderSystem    *systems.ProjectorRenderSystem
	reloadSystem    *systems.ConfigReloadSystem
	store           *game.PlaybackStore
	watcher         *config.Watcher

	width, height int
	verbose       bool
	showHelp      bool
	helpFace      *text.GoTextFace

	// 播放完成后需要隐藏的实体，由等待 goroutine 写入，更新线程读取
	hideQueue chan ecs.EntityID
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp 加载配置并创建应用
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	file, err := config.LoadProjectorConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("动画配置加载失败: %w", err)
	}

	em := ecs.NewEntityManager()
	baseDir := filepath.Dir(cfg.ConfigPath)
	for i := range file.Projectors {
		entry := &file.Projectors[i]
		sheet, err := loadSheet(resolvePath(baseDir, entry.Sheet))
		if err != nil {
			// 精灵图缺失不是致命错误，实体以空白视口创建
			log.Printf("[App] Warning: %v", err)
		}
		if _, err := entities.NewProjectorEntity(em, entry, sheet); err != nil {
			return nil, err
		}
	}

	var manager *gdata.Manager
	if cfg.AppName != "" {
		manager, err = gdata.Open(gdata.Config{AppName: cfg.AppName})
		if err != nil {
			log.Printf("[App] Warning: gdata unavailable, playback state will not persist: %v", err)
			manager = nil
		}
	}
	store := game.NewPlaybackStore(manager)
	store.RestoreAll(em)

	var watcher *config.Watcher
	if cfg.Watch {
		watcher, err = config.NewWatcher(baseDir)
		if err != nil {
			log.Printf("[App] Warning: hot reload disabled: %v", err)
			watcher = nil
		} else {
			log.Printf("[App] Watching %s for changes", baseDir)
		}
	}

	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		entityManager:   em,
		projectorSystem: systems.NewProjectorSystem(em),
		renderSystem:    systems.NewProjectorRenderSystem(em),
		reloadSystem:    systems.NewConfigReloadSystem(em, watcher, cfg.ConfigPath),
		store:           store,
		watcher:         watcher,
		width:           width,
		height:          height,
		verbose:         cfg.Verbose,
		showHelp:        true,
		hideQueue:       make(chan ecs.EntityID, 16),
		ctx:             ctx,
		cancel:          cancel,
	}
	log.Printf("[App] Loaded %d projectors from %s", em.EntityCount(), cfg.ConfigPath)
	return a, nil
}

// resolvePath 把相对路径解析到配置文件所在目录
func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// loadSheet 解码精灵图文件
func loadSheet(path string) (*ebiten.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("no sheet configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sheet %s: %w", path, err)
	}
	log.Printf("[App] Loaded sheet %s (%s, %dx%d)", path, format, img.Bounds().Dx(), img.Bounds().Dy())
	return ebiten.NewImageFromImage(img), nil
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	a.handleInput()
	a.step(1.0 / float64(ebiten.TPS()))
	return nil
}

// step 推进一帧：处理隐藏请求、驱动动画、应用热重载
func (a *App) step(deltaTime float64) {
	a.drainHidden()
	a.projectorSystem.Update(deltaTime)
	a.reloadSystem.Update(deltaTime)
	a.entityManager.RemoveMarkedEntities()
}

func (a *App) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		a.showHelp = !a.showHelp
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		a.StopAll()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.ShowAll()
	}
	if pressed, x, y := utils.PointerJustPressed(); pressed {
		if id, ok := a.HitTest(float64(x), float64(y)); ok {
			a.PlayEntity(id)
		}
	}
}

// HitTest 返回包含屏幕坐标的可见实体（后创建的优先）
func (a *App) HitTest(x, y float64) (ecs.EntityID, bool) {
	ids := ecs.GetEntitiesWith2[*components.ProjectorComponent, *components.PositionComponent](a.entityManager)
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if vis, ok := ecs.GetComponent[*components.VisibilityComponent](a.entityManager, id); ok && vis.Hidden {
			continue
		}
		comp, _ := ecs.GetComponent[*components.ProjectorComponent](a.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](a.entityManager, id)
		if comp.View == nil {
			continue
		}
		g := comp.View.Geometry
		if utils.PointInRect(x, y, pos.X, pos.Y, g.CellWidth, g.CellHeight) {
			return id, true
		}
	}
	return 0, false
}

// PlayEntity 播放实体的动画，并在本次播放结束（完成或被停止）后隐藏它
func (a *App) PlayEntity(id ecs.EntityID) bool {
	comp, ok := ecs.GetComponent[*components.ProjectorComponent](a.entityManager, id)
	if !ok || comp.Animator == nil {
		return false
	}
	if vis, ok := ecs.GetComponent[*components.VisibilityComponent](a.entityManager, id); ok {
		vis.Hidden = false
	}

	completion := comp.Animator.Play()
	if completion.IsResolved() {
		log.Printf("[App] %s cannot play: %v", comp.Name, comp.Animator.SourceErr())
		return false
	}
	go func() {
		if err := completion.Wait(a.ctx); err != nil {
			return
		}
		select {
		case a.hideQueue <- id:
		case <-a.ctx.Done():
		}
	}()
	return true
}

func (a *App) drainHidden() {
	for {
		select {
		case id := <-a.hideQueue:
			if vis, ok := ecs.GetComponent[*components.VisibilityComponent](a.entityManager, id); ok {
				vis.Hidden = true
			}
		default:
			return
		}
	}
}

// StopAll 停止所有动画
func (a *App) StopAll() {
	for _, id := range ecs.GetEntitiesWith1[*components.ProjectorComponent](a.entityManager) {
		comp, _ := ecs.GetComponent[*components.ProjectorComponent](a.entityManager, id)
		if comp.Animator != nil {
			comp.Animator.Stop()
		}
	}
}

// ShowAll 显示所有被隐藏的实体
func (a *App) ShowAll() {
	for _, id := range ecs.GetEntitiesWith1[*components.VisibilityComponent](a.entityManager) {
		vis, _ := ecs.GetComponent[*components.VisibilityComponent](a.entityManager, id)
		vis.Hidden = false
	}
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Darkslategray)
	a.renderSystem.Draw(screen)
	if a.showHelp {
		a.drawHelp(screen)
	}
}

func (a *App) drawHelp(screen *ebiten.Image) {
	if a.helpFace == nil {
		source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			log.Printf("[App] Failed to load help font: %v", err)
			a.showHelp = false
			return
		}
		a.helpFace = &text.GoTextFace{Source: source, Size: 14}
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(8, float64(a.height)-24)
	op.ColorScale.ScaleWithColor(colornames.Lightgray)
	text.Draw(screen, "click: play  S: stop all  R: show all  H: help", a.helpFace, op)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.width, a.height
}

// Close 保存播放状态并释放资源
func (a *App) Close() error {
	a.cancel()
	if _, err := a.store.SaveAll(a.entityManager); err != nil {
		log.Printf("[App] Warning: failed to save playback state: %v", err)
	}
	for _, id := range ecs.GetEntitiesWith1[*components.ProjectorComponent](a.entityManager) {
		comp, _ := ecs.GetComponent[*components.ProjectorComponent](a.entityManager, id)
		if comp.Animator != nil {
			comp.Animator.Close()
		}
	}
	if a.watcher != nil {
		return a.watcher.Close()
	}
	return nil
}

// EntityManager 返回实体管理器
func (a *App) EntityManager() *ecs.EntityManager {
	return a.entityManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
