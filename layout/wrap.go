package layout

import (
	"math"
	"strings"
)

// 本文件实现贪心折行（Line Breaker）。分页与渲染都通过这里折行，
// 保证预览与批量导出看到完全相同的行划分。

// Line 表示折行后的一行文本及其度量宽度（px）。
type Line struct {
	Content string  `json:"content"`
	WidthPx float64 `json:"widthPx"`
}

// Wrap 将一个段落按最大宽度折成行序列。
// 规则：
//   - 按空白分词，贪心累积；再加一个词会超宽且当前行非空时换行；
//   - 单个词本身超宽时独占一行，不在词内拆分；
//   - 段落内的字面换行符强制换行；
//   - 空段落（连续换行产生）仍计为恰好一行，保持段落间的视觉空行。
func Wrap(paragraph string, maxWidthPx float64, font Font, m Measurer) ([]Line, error) {
	limit := maxWidthPx
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []Line
	for _, segment := range strings.Split(strings.ReplaceAll(paragraph, "\r", ""), "\n") {
		segLines, err := wrapSegment(segment, limit, font, m)
		if err != nil {
			return nil, err
		}
		lines = append(lines, segLines...)
	}
	return lines, nil
}

// wrapSegment 对不含换行符的一段文本做贪心折行。
func wrapSegment(segment string, limit float64, font Font, m Measurer) ([]Line, error) {
	words := strings.Fields(segment)
	if len(words) == 0 {
		return []Line{{Content: "", WidthPx: 0}}, nil
	}

	var (
		lines    []Line
		current  string
		curWidth float64
	)
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		width, err := m.TextWidthPx(font, candidate)
		if err != nil {
			return nil, err
		}
		if current != "" && width > limit {
			lines = append(lines, Line{Content: current, WidthPx: curWidth})
			current = word
			curWidth, err = m.TextWidthPx(font, word)
			if err != nil {
				return nil, err
			}
			continue
		}
		current = candidate
		curWidth = width
	}
	if current != "" {
		lines = append(lines, Line{Content: current, WidthPx: curWidth})
	}
	return lines, nil
}

// LineCount 返回段落折行后的行数。
func LineCount(paragraph string, maxWidthPx float64, font Font, m Measurer) (int, error) {
	lines, err := Wrap(paragraph, maxWidthPx, font, m)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}
