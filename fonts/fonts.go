// Package fonts 提供内置字族的字节数据。内置字体保证预览与导出 worker
// 在任何环境下都有可用字体，是度量一致性的最后兜底。
package fonts

import (
	"fmt"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
)

// DefaultFamily 是内置默认字族名，目标字体缺失时度量与渲染退回到它。
const DefaultFamily = "LatinModern"

// builtin 按字族名索引内置字体数据。
var builtin = map[string][]byte{
	DefaultFamily:             lmroman10regular.TTF,
	DefaultFamily + "-Bold":   lmroman10bold.TTF,
	DefaultFamily + "-Italic": lmroman10italic.TTF,
}

// Load 返回内置字族的字节数据；未知字族返回错误。
func Load(family string) ([]byte, error) {
	if data, ok := builtin[family]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("未知内置字族 %s", family)
}

// LoadDefault 返回内置默认字族的字体数据。
func LoadDefault() ([]byte, error) {
	return Load(DefaultFamily)
}
