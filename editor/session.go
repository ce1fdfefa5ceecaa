// Package editor 维护交互式编辑会话：文档文本、版式设置、作者信息与
// 当前分页结果。文本或设置变化经去抖窗口触发重排；页实体跨重排按
// 位置复用 id 与背景指定。
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ByLCY/storycard/export"
	"github.com/ByLCY/storycard/layout"
	"github.com/ByLCY/storycard/reflow"
	"github.com/ByLCY/storycard/renderer"
)

// Page 是会话中的一页：id 稳定，内容由分页引擎产出，
// LineCount 恒由内容经折行重新计算。
type Page struct {
	ID         string
	Content    string
	LineCount  int
	Background renderer.Background
}

// Options 配置编辑会话。
type Options struct {
	Settings     layout.Settings
	Author       layout.AuthorInfo
	Measurer     layout.Measurer
	Debounce     time.Duration // <=0 时取 reflow.DefaultDelay
	Log          *zap.Logger
	DefaultStyle *layout.TextStyle
	Styles       map[int]layout.TextStyle // 按页号（1 起始）覆盖默认样式
}

// Session 是编辑表面的核心协作对象。所有字段由内部互斥锁保护；
// 分页与渲染函数只接受显式快照，不读取会话内的可变状态。
type Session struct {
	mu sync.Mutex

	log      *zap.Logger
	measurer layout.Measurer

	text     string
	settings layout.Settings
	author   layout.AuthorInfo

	pages    []Page
	budgets  []int
	overflow string

	defaultStyle layout.TextStyle
	styles       map[int]layout.TextStyle

	reflowSched  *reflow.Scheduler
	previewSched *reflow.Scheduler
}

// NewSession 创建会话并完成一次初始分页（空文档）。
func NewSession(opts Options) (*Session, error) {
	if opts.Measurer == nil {
		return nil, fmt.Errorf("editor: 缺少文本度量实现")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	settings := opts.Settings
	if settings.PageCount <= 0 {
		settings = layout.DefaultSettings()
	}
	style := layout.DefaultTextStyle()
	if opts.DefaultStyle != nil {
		style = *opts.DefaultStyle
	}

	s := &Session{
		log:          log,
		measurer:     opts.Measurer,
		settings:     settings,
		author:       opts.Author,
		defaultStyle: style,
		styles:       opts.Styles,
		reflowSched:  reflow.NewScheduler(opts.Debounce),
		previewSched: reflow.NewScheduler(opts.Debounce),
	}
	s.pages = make([]Page, settings.PageCount)
	for i := range s.pages {
		s.pages[i] = Page{ID: uuid.NewString()}
	}
	if err := s.ReflowNow(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close 停止去抖调度，丢弃所有未提交的重排与预览。
func (s *Session) Close() {
	s.reflowSched.Stop()
	s.previewSched.Stop()
}

// SetText 更新文档文本并调度一次去抖重排。
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	s.scheduleReflow()
}

// SetSettings 更新版式设置；任一字段变化都会使全部页内容失效并整体重排。
func (s *Session) SetSettings(settings layout.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	s.scheduleReflow()
}

// SetAuthor 更新作者信息；标题行数影响首页预算，因此同样触发重排。
func (s *Session) SetAuthor(author layout.AuthorInfo) {
	s.mu.Lock()
	s.author = author
	s.mu.Unlock()
	s.scheduleReflow()
}

// SetBackground 为指定页（0 起始下标）指定背景；跨重排按位置保留。
func (s *Session) SetBackground(pageIndex int, bg renderer.Background) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pageIndex < 0 || pageIndex >= len(s.pages) {
		return fmt.Errorf("editor: 页下标 %d 越界（共 %d 页）", pageIndex, len(s.pages))
	}
	s.pages[pageIndex].Background = bg
	return nil
}

// Pages 返回当前页序列的快照。
func (s *Session) Pages() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// Overflow 返回最近一次分页未能放入固定页数的剩余文本；空串表示无溢出。
func (s *Session) Overflow() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflow
}

func (s *Session) scheduleReflow() {
	s.reflowSched.Submit(func(ctx context.Context) {
		if err := s.reflow(ctx); err != nil {
			s.log.Warn("重排失败，保留上一次有效分页", zap.Error(err))
		}
	})
}

// ReflowNow 立即同步执行一次重排（CLI 与测试路径）。
func (s *Session) ReflowNow() error {
	return s.reflow(context.Background())
}

// reflow 以显式快照运行分页引擎，然后在锁内提交结果。
// ctx 被取消说明本次执行已被更新的请求取代，结果直接丢弃。
func (s *Session) reflow(ctx context.Context) error {
	s.mu.Lock()
	text, settings, author := s.text, s.settings, s.author
	s.mu.Unlock()

	part, err := layout.Paginate(text, settings, author, s.measurer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}

	pages := make([]Page, settings.PageCount)
	for i := range pages {
		if i < len(s.pages) {
			// 位置复用：id 与背景指定跨重排保留。
			pages[i].ID = s.pages[i].ID
			pages[i].Background = s.pages[i].Background
		} else {
			pages[i].ID = uuid.NewString()
		}
		pages[i].Content = part.Pages[i].Content
		pages[i].LineCount = part.Pages[i].LineCount
	}
	s.pages = pages
	s.budgets = part.Budgets
	s.overflow = part.Overflow

	if part.HasOverflow() {
		s.log.Warn("文本超出固定页数，剩余内容未放置",
			zap.Int("pages", settings.PageCount),
			zap.Int("overflowChars", len(part.Overflow)))
	}
	for i, pg := range part.Pages {
		if pg.LineCount > part.Budgets[i] {
			s.log.Warn("单页内容超出行数预算",
				zap.Int("page", i+1),
				zap.Int("lines", pg.LineCount),
				zap.Int("budget", part.Budgets[i]))
		}
	}
	return nil
}

// Task 构建指定页（0 起始下标）的渲染任务快照。
func (s *Session) Task(pageIndex int, globalAlign string) (*renderer.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskLocked(pageIndex, globalAlign, uuid.NewString())
}

func (s *Session) taskLocked(pageIndex int, globalAlign, id string) (*renderer.Task, error) {
	if pageIndex < 0 || pageIndex >= len(s.pages) {
		return nil, fmt.Errorf("editor: 页下标 %d 越界（共 %d 页）", pageIndex, len(s.pages))
	}
	page := s.pages[pageIndex]
	style := s.defaultStyle
	if override, ok := s.styles[pageIndex+1]; ok {
		style = override
	}
	task := &renderer.Task{
		ID:          id,
		PageNumber:  pageIndex + 1,
		Content:     page.Content,
		Style:       style,
		Settings:    s.settings,
		Background:  page.Background,
		GlobalAlign: globalAlign,
	}
	if pageIndex == 0 {
		task.Title = s.author.Title
	}
	return task, nil
}

// Tasks 为当前全部页构建导出任务，每页一个，派发后不可变。
func (s *Session) Tasks(globalAlign string) ([]*renderer.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]*renderer.Task, 0, len(s.pages))
	for i := range s.pages {
		task, err := s.taskLocked(i, globalAlign, uuid.NewString())
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// SchedulePreview 以去抖方式渲染当前编辑页的预览。commit 仅在本次渲染
// 未被更新的请求取代时被调用；过期结果绝不会落到可见表面上。
func (s *Session) SchedulePreview(surface renderer.PageRenderer, pageIndex int, commit func(png []byte)) {
	s.previewSched.Submit(func(ctx context.Context) {
		task, err := s.Task(pageIndex, "")
		if err != nil {
			s.log.Warn("构建预览任务失败", zap.Error(err))
			return
		}
		img, err := surface.Render(task)
		if err != nil {
			s.log.Warn("预览渲染失败", zap.Int("page", pageIndex+1), zap.Error(err))
			return
		}
		// 提交与新请求的取消互斥，过期结果没有提交窗口。
		s.previewSched.Commit(ctx, func() { commit(img) })
	})
}

// Export 为全部页构建任务并交给批量调度器执行。
func (s *Session) Export(ctx context.Context, sched *export.Scheduler, globalAlign string, onProgress func(export.Progress)) ([]export.Result, error) {
	tasks, err := s.Tasks(globalAlign)
	if err != nil {
		return nil, err
	}
	return sched.Run(ctx, tasks, onProgress)
}

// Author 返回当前作者信息快照。
func (s *Session) Author() layout.AuthorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.author
}

// Partition 返回当前分页结果的快照，用于调试输出。
func (s *Session) Partition() *layout.Partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]layout.PageText, len(s.pages))
	for i, pg := range s.pages {
		pages[i] = layout.PageText{Content: pg.Content, LineCount: pg.LineCount}
	}
	budgets := make([]int, len(s.budgets))
	copy(budgets, s.budgets)
	return &layout.Partition{Pages: pages, Budgets: budgets, Overflow: s.overflow}
}
