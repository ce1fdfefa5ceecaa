package styles

import (
	"testing"

	"github.com/ByLCY/storycard/layout"
)

const sampleSheet = `
// 封面反白居中，其余沿用默认
default {
  color: #1e1e1e
  align: left
}
page 1 {
  color: #fff
  align: center
  valign: middle
  offset: 0 24
}
page 3 {
  align: end
}
`

func TestParseAndResolve(t *testing.T) {
	sheet, err := ParseString(sampleSheet)
	if err != nil {
		t.Fatalf("解析样式表失败: %v", err)
	}
	def, perPage, err := sheet.Resolve(layout.DefaultTextStyle())
	if err != nil {
		t.Fatalf("应用样式表失败: %v", err)
	}

	if def.Color != (layout.Color{R: 30, G: 30, B: 30}) || def.Align != "left" {
		t.Fatalf("默认样式不符: %+v", def)
	}

	p1, ok := perPage[1]
	if !ok {
		t.Fatalf("缺少第 1 页样式")
	}
	if p1.Color != (layout.Color{R: 255, G: 255, B: 255}) {
		t.Fatalf("#fff 应展开为白色: %+v", p1.Color)
	}
	if p1.Align != "center" || p1.VAlign != "middle" {
		t.Fatalf("第 1 页对齐不符: %+v", p1)
	}
	if p1.OffsetXPx != 0 || p1.OffsetYPx != 24 {
		t.Fatalf("第 1 页偏移不符: %+v", p1)
	}

	// end 别名映射为 right；未覆盖字段继承默认。
	p3 := perPage[3]
	if p3.Align != "right" {
		t.Fatalf("align end 未映射为 right: %q", p3.Align)
	}
	if p3.Color != def.Color {
		t.Fatalf("未覆盖字段应继承默认样式: %+v", p3)
	}
}

func TestResolveRejectsUnknownProp(t *testing.T) {
	sheet, err := ParseString(`page 1 { shadow: 3 }`)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if _, _, err := sheet.Resolve(layout.DefaultTextStyle()); err == nil {
		t.Fatalf("未知属性应报错")
	}
}

func TestResolveRejectsBadValues(t *testing.T) {
	for _, src := range []string{
		`page 1 { align: diagonal }`,
		`page 1 { valign: sideways }`,
		`page 1 { offset: 1 }`,
		`page 0 { align: left }`,
	} {
		sheet, err := ParseString(src)
		if err != nil {
			continue // 词法/语法层拒绝同样算通过
		}
		if _, _, err := sheet.Resolve(layout.DefaultTextStyle()); err == nil {
			t.Fatalf("%q 应报错", src)
		}
	}
}

func TestParseNegativeOffset(t *testing.T) {
	sheet, err := ParseString(`page 2 { offset: -12 -6.5 }`)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	_, perPage, err := sheet.Resolve(layout.DefaultTextStyle())
	if err != nil {
		t.Fatalf("应用失败: %v", err)
	}
	p2 := perPage[2]
	if p2.OffsetXPx != -12 || p2.OffsetYPx != -6.5 {
		t.Fatalf("负偏移解析不符: %+v", p2)
	}
}
