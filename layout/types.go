package layout

// 该文件定义分页与渲染共用的数据模型：版式设置、作者信息、文本样式与分页结果。

// Settings 是编辑器版式设置的不可变快照，分页与渲染共同消费。
// 任一字段变化都会使既有分页结果失效，需要整体重排。
type Settings struct {
	FontFamily string  `json:"fontFamily" yaml:"font_family"`
	FontSizePx float64 `json:"fontSizePx" yaml:"font_size_px"`
	LineHeight float64 `json:"lineHeight" yaml:"line_height"` // 行高倍数，例如 1.5
	PageCount  int     `json:"pageCount" yaml:"page_count"`   // 固定页数（硬上限）
	// MaxLinesPerPage 为 0 时由页面高度推导每页行数预算。
	MaxLinesPerPage int      `json:"maxLinesPerPage,omitempty" yaml:"max_lines_per_page,omitempty"`
	Geometry        Geometry `json:"geometry" yaml:"geometry"`
}

// Geometry 以像素描述 9:16 页面的几何参数。
type Geometry struct {
	WidthPx           float64 `json:"widthPx" yaml:"width_px"`
	HeightPx          float64 `json:"heightPx" yaml:"height_px"`
	PaddingPx         float64 `json:"paddingPx" yaml:"padding_px"`                   // 左右内边距
	TopPaddingPx      float64 `json:"topPaddingPx" yaml:"top_padding_px"`            // 无标题时内容起始位置
	LastPageReservePx float64 `json:"lastPageReservePx" yaml:"last_page_reserve_px"` // 末页底部保留高度
}

// DefaultGeometry 返回 1080x1920 的参考几何。
func DefaultGeometry() Geometry {
	return Geometry{
		WidthPx:           1080,
		HeightPx:          1920,
		PaddingPx:         64,
		TopPaddingPx:      96,
		LastPageReservePx: 160,
	}
}

// DefaultSettings 返回参考版式设置。
func DefaultSettings() Settings {
	return Settings{
		FontFamily: "LatinModern",
		FontSizePx: 36,
		LineHeight: 1.5,
		PageCount:  4,
		Geometry:   DefaultGeometry(),
	}
}

// ContentWidthPx 返回正文可用宽度（页面宽度减去两侧内边距）。
func (g Geometry) ContentWidthPx() float64 { return g.WidthPx - 2*g.PaddingPx }

// BodyLinePx 返回一行正文占用的像素高度。
func (s Settings) BodyLinePx() float64 { return s.FontSizePx * s.LineHeight }

// 标题区域固定参数：标题行高倍数、标题与正文间距、标题锚点（占页高比例）。
const (
	TitleLineHeight  = 1.2
	TitleSpacingPx   = 24.0
	TitleAnchorRatio = 0.05
)

// TitleFontSizePx 由正文字号推导标题字号：max(body+6, 28)。
func TitleFontSizePx(bodySizePx float64) float64 {
	size := bodySizePx + 6
	if size < 28 {
		size = 28
	}
	return size
}

// AuthorInfo 记录作者署名与作品标题；标题只占用首页的垂直预算。
type AuthorInfo struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// TextStyle 描述每页正文的视觉属性，独立于 Settings。
type TextStyle struct {
	Color     Color   `json:"color"`
	Align     string  `json:"align,omitempty"`  // left（默认）/center/right
	VAlign    string  `json:"valign,omitempty"` // top（默认）/middle/bottom
	OffsetXPx float64 `json:"offsetXPx,omitempty"`
	OffsetYPx float64 `json:"offsetYPx,omitempty"`
}

// DefaultTextStyle 返回深灰左上对齐的默认样式。
func DefaultTextStyle() TextStyle {
	return TextStyle{Color: Color{R: 30, G: 30, B: 30}, Align: "left", VAlign: "top"}
}

// PageText 是分页结果中的一页：内容与其折行后的行数。
// LineCount 始终由 Content 重新计算，不会独立赋值。
type PageText struct {
	Content   string `json:"content"`
	LineCount int    `json:"lineCount"`
}

// Partition 保存一次分页的完整结果。
// Pages 长度恒等于 Settings.PageCount；放不下的剩余文本记入 Overflow，
// 显式上报而不是悄悄丢弃。
type Partition struct {
	Pages    []PageText `json:"pages"`
	Budgets  []int      `json:"budgets"`            // 每页的行数预算（首页含标题扣减，末页含保留扣减）
	Overflow string     `json:"overflow,omitempty"` // 超出固定页数的未放置文本
}

// HasOverflow 报告是否有文本未能放入固定页数。
func (p *Partition) HasOverflow() bool { return p != nil && p.Overflow != "" }
