package layout

import (
	"fmt"
	"math"
	"strings"
)

// 本文件实现分页引擎：把整篇文本按行数预算切成固定页数的内容串。

// Paginate 将全文按 Settings 分成恰好 PageCount 页。
//
// 预算规则：
//   - 每页基础预算为 floor(页高 / (字号 * 行高倍数))；
//   - 首页预算再扣除标题块的等效行数（标题字号、1.2 行高与固定间距）；
//   - 末页预算再扣除 LastPageReservePx 的等效行数，作为视觉保留区；
//   - 页数是硬上限：放不下的剩余文本记入 Partition.Overflow 显式上报。
//
// 对自身输出重新分页（设置不变）会得到相同的划分；未溢出时各页内容
// 以换行符重连可还原原文。
func Paginate(text string, s Settings, author AuthorInfo, m Measurer) (*Partition, error) {
	if m == nil {
		return nil, fmt.Errorf("layout: 缺少文本度量实现 Measurer")
	}
	if s.PageCount <= 0 {
		return nil, fmt.Errorf("layout: 页数必须为正，实际 %d", s.PageCount)
	}
	if s.FontSizePx <= 0 || s.LineHeight <= 0 {
		return nil, fmt.Errorf("layout: 字号与行高必须为正，实际 size=%g lineHeight=%g", s.FontSizePx, s.LineHeight)
	}

	budgets, err := pageBudgets(s, author, m)
	if err != nil {
		return nil, err
	}

	pages := make([]PageText, s.PageCount)
	if text == "" {
		return &Partition{Pages: pages, Budgets: budgets}, nil
	}

	bodyFont := Font{Family: s.FontFamily, SizePx: s.FontSizePx}
	contentWidth := s.Geometry.ContentWidthPx()
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		current  []string
		curLines int
		pageIdx  int
		overflow []string
	)
	closePage := func() {
		pages[pageIdx] = PageText{Content: strings.Join(current, "\n"), LineCount: curLines}
		current = nil
		curLines = 0
		pageIdx++
	}

	for _, para := range paragraphs {
		if pageIdx >= s.PageCount {
			overflow = append(overflow, para)
			continue
		}
		lc, err := LineCount(para, contentWidth, bodyFont, m)
		if err != nil {
			return nil, err
		}
		if curLines > 0 && curLines+lc > budgets[pageIdx] {
			closePage()
			if pageIdx >= s.PageCount {
				overflow = append(overflow, para)
				continue
			}
		}
		// 空页也放不下该段落时，先找后面放得下的页，关闭空页跳过去；
		// 只有所有页都放不下的段落才整体落在当前空页，由调用方根据
		// LineCount 与 Budgets 的对比发现并告警。段落不跨页拆分。
		if curLines == 0 && lc > budgets[pageIdx] {
			for next := pageIdx + 1; next < s.PageCount; next++ {
				if lc <= budgets[next] {
					for pageIdx < next {
						closePage()
					}
					break
				}
			}
		}
		current = append(current, para)
		curLines += lc
	}
	if pageIdx < s.PageCount && len(current) > 0 {
		closePage()
	}

	return &Partition{
		Pages:    pages,
		Budgets:  budgets,
		Overflow: strings.Join(overflow, "\n"),
	}, nil
}

// pageBudgets 计算每页的行数预算。
func pageBudgets(s Settings, author AuthorInfo, m Measurer) ([]int, error) {
	linePx := s.BodyLinePx()
	base := int(math.Floor(s.Geometry.HeightPx / linePx))
	if s.MaxLinesPerPage > 0 && s.MaxLinesPerPage < base {
		base = s.MaxLinesPerPage
	}
	if base < 1 {
		return nil, fmt.Errorf("layout: 页面高度 %g 放不下任何一行（行高 %g）", s.Geometry.HeightPx, linePx)
	}

	budgets := make([]int, s.PageCount)
	for i := range budgets {
		budgets[i] = base
	}

	// 首页扣除标题块：标题折行数由标题自己的字号决定，而不是字符数。
	if author.Title != "" {
		titlePx, err := TitleBlockPx(author.Title, s, m)
		if err != nil {
			return nil, err
		}
		budgets[0] -= int(math.Ceil(titlePx / linePx))
		if budgets[0] < 0 {
			budgets[0] = 0
		}
	}

	// 末页扣除底部保留区。
	if s.Geometry.LastPageReservePx > 0 {
		last := s.PageCount - 1
		budgets[last] -= int(math.Ceil(s.Geometry.LastPageReservePx / linePx))
		if budgets[last] < 0 {
			budgets[last] = 0
		}
	}
	return budgets, nil
}

// TitleBlockPx 返回标题块占用的像素高度：折行数 × 标题行高，加固定间距。
// 渲染器按同一公式绘制标题，保证预算与实际绘制一致。
func TitleBlockPx(title string, s Settings, m Measurer) (float64, error) {
	titleFont := Font{Family: s.FontFamily, SizePx: TitleFontSizePx(s.FontSizePx)}
	lines, err := LineCount(title, s.Geometry.ContentWidthPx(), titleFont, m)
	if err != nil {
		return 0, fmt.Errorf("layout: 度量标题失败: %w", err)
	}
	return float64(lines)*titleFont.SizePx*TitleLineHeight + TitleSpacingPx, nil
}

// Rejoin 以换行符重连各页内容，用于校验无损切分。未放置任何段落的
// 空页（LineCount 为 0）不参与重连：既包括末尾未用到的页，也包括
// 因段落放不下而被跳过的页。只含空白段落的页 LineCount 至少为 1，
// 仍会保留。
func (p *Partition) Rejoin() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(p.Pages))
	for _, pg := range p.Pages {
		if pg.Content == "" && pg.LineCount == 0 {
			continue
		}
		parts = append(parts, pg.Content)
	}
	return strings.Join(parts, "\n")
}
