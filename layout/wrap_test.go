package layout

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// stubMeasurer 是测试用的最小度量实现：每个字符宽度为字号的一半，
// 空格同宽。避免测试依赖真实字体。
type stubMeasurer struct{}

func (stubMeasurer) TextWidthPx(font Font, text string) (float64, error) {
	return float64(utf8.RuneCountInString(text)) * font.SizePx / 2, nil
}

func TestWrapGreedy(t *testing.T) {
	font := Font{Family: "stub", SizePx: 10}
	// 每字符 5px，限宽 60px：一行最多 12 个字符。
	lines, err := Wrap("aaaa bbbb cccc dddd", 60, font, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %#v", len(lines), lines)
	}
	if lines[0].Content != "aaaa bbbb" || lines[1].Content != "cccc dddd" {
		t.Fatalf("贪心折行结果不符: %#v", lines)
	}
}

func TestWrapHonorsNewlines(t *testing.T) {
	font := Font{Family: "stub", SizePx: 10}
	lines, err := Wrap("foo\n\nbar", 1000, font, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

func TestWrapEmptyParagraphCountsAsOneLine(t *testing.T) {
	lines, err := Wrap("", 100, Font{SizePx: 10}, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Content != "" {
		t.Fatalf("空段落应恰好占一行: %#v", lines)
	}
}

// TestWrapOversizedWordStandsAlone 验证超宽单词独占一行且不在词内拆分。
func TestWrapOversizedWordStandsAlone(t *testing.T) {
	font := Font{Family: "stub", SizePx: 10}
	long := strings.Repeat("x", 40) // 200px，远超限宽
	lines, err := Wrap("ab "+long+" cd", 60, font, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %#v", len(lines), lines)
	}
	if lines[1].Content != long {
		t.Fatalf("超宽单词应独占一行且保持完整: %q", lines[1].Content)
	}
}

// TestWrapWidthBound 验证除超宽单词外，每行宽度不超过限制。
func TestWrapWidthBound(t *testing.T) {
	font := Font{Family: "stub", SizePx: 10}
	limit := 55.0
	text := "one two three four five six seven eight nine ten"
	lines, err := Wrap(text, limit, font, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, ln := range lines {
		if ln.WidthPx > limit && strings.Contains(ln.Content, " ") {
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g content=%q", i, ln.WidthPx, limit, ln.Content)
		}
	}
}

func TestLineCountMatchesWrap(t *testing.T) {
	font := Font{Family: "stub", SizePx: 10}
	text := "aaaa bbbb cccc dddd eeee"
	lines, err := Wrap(text, 60, font, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := LineCount(text, 60, font, stubMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(lines) {
		t.Fatalf("LineCount=%d 与 Wrap 行数 %d 不一致", n, len(lines))
	}
}
