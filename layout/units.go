package layout

// This file defines unit conversions between device pixels, millimeters and points.
// 版式设置与度量接口对外统一用像素；canvas 后端内部以 mm 作图、以 pt 建字体面，
// 在边界处做一次换算。

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// DPMM 是导出分辨率：每毫米像素数。1080x1920 px 对应 108x192 mm。
const DPMM = 10.0

// PxToMm 将像素转换为毫米。
func PxToMm(px float64) float64 { return px / DPMM }

// MmToPx 将毫米转换为像素。
func MmToPx(mm float64) float64 { return mm * DPMM }

// PxToPt 将像素字号转换为点，供字体系统使用。
func PxToPt(px float64) float64 { return PxToMm(px) * MmToPt }
