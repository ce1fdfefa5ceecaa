package layout

// Font 标识一次度量/绘制所用的字体：字族与像素字号。
type Font struct {
	Family string
	SizePx float64
}

// Measurer 负责文本宽度度量，是分页与渲染共享的唯一度量入口。
// 实现必须满足：相同输入在交互线程与导出 worker 中返回完全一致的宽度；
// 请求的字族不可用时静默退回默认字体（由实现记录日志），不作为错误返回。
type Measurer interface {
	// TextWidthPx 返回 text 以 font 渲染后的像素宽度。
	TextWidthPx(font Font, text string) (float64, error)
}
