package components

import "github.com/hajimehoshi/ebiten/v2"

// SpriteComponent 存储实体的精灵图（整张 sprite sheet）
type SpriteComponent struct {
	Image *ebiten.Image
	Path  string // 精灵图来源路径，用于日志和热重载
}
