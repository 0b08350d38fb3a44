package projector

import (
	"fmt"
	"image"
	"math"
)

// ReferenceDPI 宿主坐标系使用的基准 DPI
const ReferenceDPI = 96.0

// Sheet 精灵图的元数据（像素尺寸与 DPI）
//
// 动画器只使用这些尺寸计算缩放，不接触像素内容。
type Sheet struct {
	PixelWidth  int
	PixelHeight int
	DpiX        float64
	DpiY        float64
}

// NewSheet 以基准 DPI 创建精灵图元数据
func NewSheet(pixelWidth, pixelHeight int) *Sheet {
	return &Sheet{
		PixelWidth:  pixelWidth,
		PixelHeight: pixelHeight,
		DpiX:        ReferenceDPI,
		DpiY:        ReferenceDPI,
	}
}

// SheetFromImage 从任意 image.Image（包括 *ebiten.Image）读取尺寸
//
// 传入 nil 或无法读取尺寸的图片时返回 *SourceAttachError。
func SheetFromImage(img image.Image) (sheet *Sheet, err error) {
	if img == nil {
		return nil, &SourceAttachError{Reason: "image is nil"}
	}
	// 带类型的 nil 指针（如 (*ebiten.Image)(nil)）在 Bounds() 中会 panic
	defer func() {
		if r := recover(); r != nil {
			sheet = nil
			err = &SourceAttachError{Reason: "image bounds unavailable", Err: fmt.Errorf("%v", r)}
		}
	}()
	b := img.Bounds()
	return NewSheet(b.Dx(), b.Dy()), nil
}

// validate 检查尺寸和 DPI
func (s *Sheet) validate() error {
	if s.PixelWidth <= 0 || s.PixelHeight <= 0 {
		return &SourceAttachError{Reason: fmt.Sprintf("invalid pixel size %dx%d", s.PixelWidth, s.PixelHeight)}
	}
	if !(s.DpiX > 0) || !(s.DpiY > 0) || math.IsInf(s.DpiX, 0) || math.IsInf(s.DpiY, 0) {
		return &SourceAttachError{Reason: fmt.Sprintf("invalid dpi %gx%g", s.DpiX, s.DpiY)}
	}
	return nil
}

// Rect 浮点矩形（宿主坐标）
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Geometry 视口几何信息，写入渲染层
//
// Viewport 是整张精灵图按单元格显示尺寸铺开后的大小，
// ScaleX/ScaleY 把精灵图像素映射到该大小。
type Geometry struct {
	Columns    int
	Rows       int
	CellWidth  float64 // 单元格显示宽度（控件实际宽度）
	CellHeight float64 // 单元格显示高度
	Viewport   Rect
	ScaleX     float64
	ScaleY     float64
	Blank      bool // 精灵图接入失败后的 1×1 空白视口
}

// blankGeometry 回退用的中性视口
func blankGeometry() Geometry {
	return Geometry{
		Columns:  1,
		Rows:     1,
		Viewport: Rect{Width: 1, Height: 1},
		ScaleX:   1,
		ScaleY:   1,
		Blank:    true,
	}
}

// computeGeometry 根据配置、单元格显示尺寸和精灵图计算视口
func computeGeometry(cfg AnimationConfig, cellW, cellH float64, sheet *Sheet) Geometry {
	rows := cfg.RowCount()
	g := Geometry{
		Columns:    cfg.ColumnCount,
		Rows:       rows,
		CellWidth:  cellW,
		CellHeight: cellH,
		ScaleX:     1,
		ScaleY:     1,
	}
	desiredW := cellW * float64(cfg.ColumnCount)
	desiredH := cellH * float64(rows)
	g.Viewport = Rect{Width: desiredW, Height: desiredH}

	if sheet != nil && sheet.PixelWidth > 0 && sheet.PixelHeight > 0 {
		g.ScaleX = (desiredW / float64(sheet.PixelWidth)) * (sheet.DpiX / ReferenceDPI)
		g.ScaleY = (desiredH / float64(sheet.PixelHeight)) * (sheet.DpiY / ReferenceDPI)
	}
	return g
}

// Sink 渲染层的输出接口
type Sink interface {
	// SetOffset 设置精灵图的平移量（单元格切换时调用）
	SetOffset(x, y float64)
	// SetGeometry 设置缩放与裁剪视口（网格或尺寸变化时调用）
	SetGeometry(g Geometry)
}
