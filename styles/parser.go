// Package styles 解析每页文本样式表 DSL，产出渲染所需的 TextStyle。
//
// 样式表形如：
//
//	default {
//	  color: #1e1e1e
//	  align: left
//	}
//	page 1 {
//	  color: #ffffff
//	  align: center
//	  valign: middle
//	  offset: 0 24
//	}
package styles

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/storycard/layout"
)

var (
	sheetLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:{}]`},
	})

	sheetParser = participle.MustBuild[Sheet](
		participle.Lexer(sheetLexer),
		participle.Elide("Whitespace", "LineComment"),
	)
)

// Sheet is the root AST node for a style sheet.
type Sheet struct {
	Entries []*Entry `parser:"Newline* ( @@ Newline* )*"`
}

// Entry 是一个样式块：default 或 page N。
type Entry struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Default bool           `parser:"( @'default'"`
	Page    *int           `parser:"| 'page' @Number )"`
	Props   []*Prop        `parser:"'{' Newline* ( @@ Newline* )* '}'"`
}

// Prop 是块内的一条属性：键与一个或多个值 token。
type Prop struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Key    string         `parser:"@Ident ':'"`
	Values []string       `parser:"( @Color | @Number | @Ident )+"`
}

// Parse parses style sheet content from an io.Reader.
func Parse(r io.Reader) (*Sheet, error) {
	return sheetParser.Parse("", r)
}

// ParseString parses style sheet content from a string.
func ParseString(input string) (*Sheet, error) {
	return sheetParser.ParseString("", input)
}

// Resolve 以 base 为基础应用样式表：返回解析后的默认样式与按页号
// （1 起始）覆盖的样式集合。default 块先于 page 块生效。
func (s *Sheet) Resolve(base layout.TextStyle) (layout.TextStyle, map[int]layout.TextStyle, error) {
	def := base
	for _, entry := range s.Entries {
		if !entry.Default {
			continue
		}
		if err := applyProps(&def, entry.Props); err != nil {
			return def, nil, err
		}
	}

	perPage := map[int]layout.TextStyle{}
	for _, entry := range s.Entries {
		if entry.Default {
			continue
		}
		if entry.Page == nil || *entry.Page < 1 {
			return def, nil, fmt.Errorf("styles: %s: 页号必须为正整数", entry.Pos)
		}
		style, ok := perPage[*entry.Page]
		if !ok {
			style = def
		}
		if err := applyProps(&style, entry.Props); err != nil {
			return def, nil, err
		}
		perPage[*entry.Page] = style
	}
	return def, perPage, nil
}

func applyProps(style *layout.TextStyle, props []*Prop) error {
	for _, prop := range props {
		switch strings.ToLower(prop.Key) {
		case "color":
			if len(prop.Values) != 1 {
				return fmt.Errorf("styles: %s: color 需要一个颜色值", prop.Pos)
			}
			c, err := parseHexColor(prop.Values[0])
			if err != nil {
				return fmt.Errorf("styles: %s: %w", prop.Pos, err)
			}
			style.Color = c
		case "align":
			if len(prop.Values) != 1 {
				return fmt.Errorf("styles: %s: align 需要一个值", prop.Pos)
			}
			align, err := normalizeAlign(prop.Values[0])
			if err != nil {
				return fmt.Errorf("styles: %s: %w", prop.Pos, err)
			}
			style.Align = align
		case "valign":
			if len(prop.Values) != 1 {
				return fmt.Errorf("styles: %s: valign 需要一个值", prop.Pos)
			}
			valign, err := normalizeVAlign(prop.Values[0])
			if err != nil {
				return fmt.Errorf("styles: %s: %w", prop.Pos, err)
			}
			style.VAlign = valign
		case "offset":
			if len(prop.Values) != 2 {
				return fmt.Errorf("styles: %s: offset 需要 x y 两个数值", prop.Pos)
			}
			x, errX := strconv.ParseFloat(prop.Values[0], 64)
			y, errY := strconv.ParseFloat(prop.Values[1], 64)
			if errX != nil || errY != nil {
				return fmt.Errorf("styles: %s: offset 数值无效: %v %v", prop.Pos, prop.Values[0], prop.Values[1])
			}
			style.OffsetXPx = x
			style.OffsetYPx = y
		default:
			return fmt.Errorf("styles: %s: 未知属性 %q", prop.Pos, prop.Key)
		}
	}
	return nil
}

// parseHexColor 支持 #rgb 与 #rrggbb 两种写法。
func parseHexColor(v string) (layout.Color, error) {
	hex := strings.TrimPrefix(v, "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return layout.Color{}, fmt.Errorf("颜色值 %q 无效", v)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return layout.Color{}, fmt.Errorf("颜色值 %q 无效: %w", v, err)
	}
	return layout.Color{
		R: int(n >> 16 & 0xff),
		G: int(n >> 8 & 0xff),
		B: int(n & 0xff),
	}, nil
}

func normalizeAlign(v string) (string, error) {
	switch strings.ToLower(v) {
	case "left", "start":
		return "left", nil
	case "center":
		return "center", nil
	case "right", "end":
		return "right", nil
	default:
		return "", fmt.Errorf("未知对齐方式 %q", v)
	}
}

func normalizeVAlign(v string) (string, error) {
	switch strings.ToLower(v) {
	case "top":
		return "top", nil
	case "middle", "center":
		return "middle", nil
	case "bottom":
		return "bottom", nil
	default:
		return "", fmt.Errorf("未知垂直对齐方式 %q", v)
	}
}
