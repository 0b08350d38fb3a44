// cmd/projector_showcase/main.go
// 精灵图动画展示程序
//
// 用法：
//   go run ./cmd/projector_showcase --config=cmd/projector_showcase/config.yaml --watch
//
// 点击动画开始播放，播放结束（完成或按 S 停止）后动画被隐藏，按 R 重新显示。

package main

import (
	"flag"
	"log"

	"github.com/gonewx/projector/pkg/app"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	configPath = flag.String("config", "cmd/projector_showcase/config.yaml", "配置文件路径")
	verbose    = flag.Bool("verbose", false, "详细日志")
	watch      = flag.Bool("watch", false, "监视配置文件并热重载")
	persist    = flag.Bool("persist", true, "保存并恢复播放状态")
)

func main() {
	flag.Parse()

	if *verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	}

	log.Println("=== Projector showcase starting ===")

	cfg := app.Config{
		Verbose:    *verbose,
		ConfigPath: *configPath,
		Watch:      *watch,
	}
	if *persist {
		cfg.AppName = "projector_showcase"
	}

	game, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer game.Close()

	ebiten.SetWindowSize(app.DefaultWidth, app.DefaultHeight)
	ebiten.SetWindowTitle("Projector Showcase")
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
