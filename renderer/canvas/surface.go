package canvassurface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"

	"github.com/ByLCY/storycard/fonts"
	"github.com/ByLCY/storycard/layout"
	"github.com/ByLCY/storycard/renderer"
)

// Surface 基于 github.com/tdewolff/canvas 实现渲染面：
// 既是 layout.Measurer（文本度量），也是 renderer.PageRenderer（整页绘制）。
// 度量与绘制共用同一套字体面，保证分页预算与实际绘制一致。
//
// 批量导出时每个 worker 持有独立的 Surface 实例；实例之间只要注入的
// 字体资源相同，度量结果就完全一致。
type Surface struct {
	baseDir string
	log     *zap.Logger

	fontBlobs map[string][]byte // 按字族名注入的字体数据

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily
	fallback *canvas.FontFamily
	warned   map[string]bool // 已告警过的缺失字族，避免刷屏
}

var (
	_ renderer.PageRenderer = (*Surface)(nil)
	_ layout.Measurer       = (*Surface)(nil)
)

// Options 配置渲染面。
type Options struct {
	BaseDir string            // 背景图等路径资源的根目录
	Fonts   map[string][]byte // 按字族名注入的字体数据；未注入的字族退回内置字体
	Log     *zap.Logger       // 缺省为 zap.NewNop()
}

// NewSurface 创建渲染面。
func NewSurface(opts Options) *Surface {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	blobs := make(map[string][]byte, len(opts.Fonts))
	for name, data := range opts.Fonts {
		if name == "" || len(data) == 0 {
			continue
		}
		blobs[name] = data
	}
	return &Surface{
		baseDir:   opts.BaseDir,
		log:       log,
		fontBlobs: blobs,
		families:  map[string]*canvas.FontFamily{},
		warned:    map[string]bool{},
	}
}

// Preload 是“字体就绪”屏障：在首次度量前把所有需要的字族装入缓存。
// 预览路径与导出 worker 都必须先调用它再度量；重复调用是幂等的。
func (s *Surface) Preload(families ...string) error {
	for _, name := range families {
		if _, err := s.ensureFamily(name); err != nil {
			return err
		}
	}
	// 兜底字族也提前装载，避免度量路径上出现首次加载差异。
	s.fontMu.Lock()
	defer s.fontMu.Unlock()
	_, err := s.fallbackLocked()
	return err
}

// TextWidthPx 实现 layout.Measurer，返回文本的像素宽度。
// canvas 内部以 mm 为绘图单位，这里在边界做 mm→px 换算。
func (s *Surface) TextWidthPx(font layout.Font, text string) (float64, error) {
	face, err := s.fontFace(font, layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return 0, err
	}
	return layout.MmToPx(face.TextWidth(text)), nil
}

// Render 实现 renderer.PageRenderer：背景、标题（仅首页）、折行正文，输出 PNG。
// 给定相同任务与相同字体资源，输出字节完全可复现。
func (s *Surface) Render(task *renderer.Task) ([]byte, error) {
	if task == nil {
		return nil, fmt.Errorf("渲染任务为空")
	}
	g := task.Settings.Geometry
	if g.WidthPx <= 0 || g.HeightPx <= 0 {
		return nil, fmt.Errorf("页面尺寸无效: %gx%g", g.WidthPx, g.HeightPx)
	}
	widthMM := layout.PxToMm(g.WidthPx)
	heightMM := layout.PxToMm(g.HeightPx)

	c := canvas.New(widthMM, heightMM)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	if err := s.drawBackground(ctx, task.Background, g); err != nil {
		return nil, err
	}

	cursorY := layout.PxToMm(g.TopPaddingPx)
	if task.PageNumber == 1 && task.Title != "" {
		bottom, err := s.drawTitle(ctx, task)
		if err != nil {
			return nil, err
		}
		cursorY = bottom
	}

	if err := s.drawBody(ctx, task, cursorY); err != nil {
		return nil, err
	}

	img := rasterizer.Draw(c, canvas.DPMM(layout.DPMM), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBackground 铺满背景图；未指定背景时用默认底色填充。
func (s *Surface) drawBackground(ctx *canvas.Context, bg renderer.Background, g layout.Geometry) error {
	widthMM := layout.PxToMm(g.WidthPx)
	heightMM := layout.PxToMm(g.HeightPx)
	if bg.IsZero() {
		ctx.SetFillColor(canvas.White)
		ctx.DrawPath(0, 0, canvas.Rectangle(widthMM, heightMM))
		return nil
	}

	img, err := s.loadBackground(bg)
	if err != nil {
		return err
	}
	// 拉伸铺满整页（不保持纵横比），与分页时假定的整页背景一致。
	stretched := imaging.Resize(img, int(g.WidthPx), int(g.HeightPx), imaging.Lanczos)
	ctx.DrawImage(0, 0, stretched, canvas.DPMM(layout.DPMM))
	return nil
}

func (s *Surface) loadBackground(bg renderer.Background) (image.Image, error) {
	if len(bg.Data) > 0 {
		img, _, err := image.Decode(bytes.NewReader(bg.Data))
		if err != nil {
			return nil, fmt.Errorf("解码内嵌背景图失败: %w", err)
		}
		return img, nil
	}
	path := bg.Path
	if !filepath.IsAbs(path) {
		if s.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许使用相对背景路径：%s", path)
		}
		path = filepath.Join(s.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取背景图 %s 失败: %w", bg.Path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码背景图 %s 失败: %w", bg.Path, err)
	}
	return img, nil
}

// drawTitle 在首页顶部绘制居中标题，返回正文起始 Y（mm）。
// 占用高度与 layout.TitleBlockPx 的预算公式一致。
func (s *Surface) drawTitle(ctx *canvas.Context, task *renderer.Task) (float64, error) {
	g := task.Settings.Geometry
	titleFont := layout.Font{
		Family: task.Settings.FontFamily,
		SizePx: layout.TitleFontSizePx(task.Settings.FontSizePx),
	}
	lines, err := layout.Wrap(task.Title, g.ContentWidthPx(), titleFont, s)
	if err != nil {
		return 0, fmt.Errorf("折行标题失败: %w", err)
	}
	face, err := s.fontFace(titleFont, task.Style.Color)
	if err != nil {
		return 0, err
	}

	lineMM := layout.PxToMm(titleFont.SizePx * layout.TitleLineHeight)
	centerX := layout.PxToMm(g.WidthPx) / 2
	ascent := face.Metrics().Ascent
	y := layout.PxToMm(layout.TitleAnchorRatio * g.HeightPx)
	for _, line := range lines {
		if line.Content != "" {
			ctx.DrawText(centerX, y+ascent, canvas.NewTextLine(face, line.Content, canvas.Center))
		}
		y += lineMM
	}
	return y + layout.PxToMm(layout.TitleSpacingPx), nil
}

// drawBody 折行绘制正文：水平对齐取 GlobalAlign → Style.Align → left，
// 垂直对齐与像素偏移来自 Style。
func (s *Surface) drawBody(ctx *canvas.Context, task *renderer.Task, startY float64) error {
	set := task.Settings
	g := set.Geometry
	bodyFont := layout.Font{Family: set.FontFamily, SizePx: set.FontSizePx}
	lines, err := layout.Wrap(task.Content, g.ContentWidthPx(), bodyFont, s)
	if err != nil {
		return fmt.Errorf("折行正文失败: %w", err)
	}
	face, err := s.fontFace(bodyFont, task.Style.Color)
	if err != nil {
		return err
	}

	lineMM := layout.PxToMm(set.BodyLinePx())
	heightMM := layout.PxToMm(g.HeightPx)

	// 垂直对齐：剩余空间内对整块文本做 top/middle/bottom 定位。
	cursorY := startY
	blockMM := float64(len(lines)) * lineMM
	availMM := heightMM - startY - layout.PxToMm(g.TopPaddingPx)
	switch strings.ToLower(task.Style.VAlign) {
	case "middle", "center":
		cursorY += math.Max((availMM-blockMM)/2, 0)
	case "bottom":
		cursorY += math.Max(availMM-blockMM, 0)
	}
	cursorY += layout.PxToMm(task.Style.OffsetYPx)
	offsetX := layout.PxToMm(task.Style.OffsetXPx)

	align := task.GlobalAlign
	if align == "" {
		align = task.Style.Align
	}
	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(align) {
	case "center":
		textAlign = canvas.Center
		anchorX = layout.PxToMm(g.WidthPx) / 2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = layout.PxToMm(g.WidthPx - g.PaddingPx)
	default:
		textAlign = canvas.Left
		anchorX = layout.PxToMm(g.PaddingPx)
	}
	anchorX += offsetX

	ascent := face.Metrics().Ascent
	for _, line := range lines {
		if line.Content != "" {
			ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		}
		cursorY += lineMM
	}
	return nil
}

func (s *Surface) fontFace(font layout.Font, col layout.Color) (*canvas.FontFace, error) {
	family, err := s.ensureFamily(font.Family)
	if err != nil {
		return nil, err
	}
	return family.Face(layout.PxToPt(font.SizePx), colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

// ensureFamily 返回字族，必要时装载并缓存。目标字族不可用时静默退回
// 内置字体（记一条告警日志），不作为错误向上传播。
func (s *Surface) ensureFamily(name string) (*canvas.FontFamily, error) {
	if name == "" {
		name = fonts.DefaultFamily
	}
	s.fontMu.Lock()
	defer s.fontMu.Unlock()

	if family, ok := s.families[name]; ok {
		return family, nil
	}

	data, err := s.fontBytesLocked(name)
	if err != nil {
		if !s.warned[name] {
			s.warned[name] = true
			s.log.Warn("字体不可用，退回内置字体", zap.String("family", name), zap.Error(err))
		}
		fallback, fbErr := s.fallbackLocked()
		if fbErr != nil {
			return nil, fbErr
		}
		s.families[name] = fallback
		return fallback, nil
	}

	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		if !s.warned[name] {
			s.warned[name] = true
			s.log.Warn("装载字体失败，退回内置字体", zap.String("family", name), zap.Error(err))
		}
		fallback, fbErr := s.fallbackLocked()
		if fbErr != nil {
			return nil, fbErr
		}
		s.families[name] = fallback
		return fallback, nil
	}
	s.families[name] = family
	return family, nil
}

func (s *Surface) fontBytesLocked(name string) ([]byte, error) {
	if blob, ok := s.fontBlobs[name]; ok {
		return blob, nil
	}
	return fonts.Load(name)
}

func (s *Surface) fallbackLocked() (*canvas.FontFamily, error) {
	if s.fallback != nil {
		return s.fallback, nil
	}
	data, err := fonts.LoadDefault()
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("storycard-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	s.fallback = family
	return family, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
