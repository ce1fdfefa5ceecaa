package renderer

import "github.com/ByLCY/storycard/layout"

// Background 指定一页的背景图：Data 为内嵌字节，Path 为相对资源目录的文件。
// 零值表示无背景，渲染时使用默认底色填充。
type Background struct {
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
}

// IsZero 报告是否未指定背景。
func (b Background) IsZero() bool { return b.Path == "" && len(b.Data) == 0 }

// Task 是一页的渲染任务：派发之后不可变，worker 之间不共享可变状态。
type Task struct {
	ID          string           `json:"id"`
	PageNumber  int              `json:"pageNumber"` // 从 1 开始
	Content     string           `json:"content"`
	Title       string           `json:"title,omitempty"` // 仅首页携带
	Style       layout.TextStyle `json:"style"`
	Settings    layout.Settings  `json:"settings"`
	Background  Background       `json:"background"`
	GlobalAlign string           `json:"globalAlign,omitempty"` // 覆盖 Style.Align；空表示不覆盖
}

// PageRenderer 把一页渲染任务绘制为 PNG 字节。
// 交互预览与批量导出必须使用同一实现，保证两条路径视觉一致。
type PageRenderer interface {
	Render(task *Task) ([]byte, error)
}
