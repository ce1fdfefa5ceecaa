// Package binding 提供 ${path.to.value} 形式的文本插值，
// 用于在重排之前把作者信息等数据绑定进故事文本与标题。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 路径段支持 list[0] 形式的数组下标。若 data 为空或路径不存在，
// 则保留原占位符。
func Interpolate(text string, data map[string]any) string {
	if len(data) == 0 {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return match
		}
		if val, ok := resolve(data, path); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// resolve 沿点号路径逐段下钻 map 与数组。
func resolve(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := splitIndexes(segment)
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[name]
			if !ok {
				return nil, false
			}
		}
		for _, raw := range indexes {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, false
			}
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

// splitIndexes 把 name[0][1] 形式的路径段拆成名称与下标序列。
func splitIndexes(segment string) (string, []string) {
	i := strings.Index(segment, "[")
	if i == -1 {
		return segment, nil
	}
	name := segment[:i]
	var indexes []string
	rest := segment[i:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}
