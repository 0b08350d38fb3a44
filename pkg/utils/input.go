// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PointerJustPressed 检查本帧是否刚刚发生点击或触摸
// 优先检测触摸，返回是否按下以及位置
func PointerJustPressed() (bool, int, int) {
	touchIDs := inpututil.AppendJustPressedTouchIDs(nil)
	if len(touchIDs) > 0 {
		x, y := ebiten.TouchPosition(touchIDs[0])
		return true, x, y
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return true, x, y
	}

	return false, 0, 0
}

// PointInRect 判断点是否落在矩形内（左上闭，右下开）
func PointInRect(px, py, x, y, width, height float64) bool {
	return px >= x && px < x+width && py >= y && py < y+height
}
