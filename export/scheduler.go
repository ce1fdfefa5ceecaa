// Package export 实现批量导出调度：把每页渲染任务按固定块并发派发到
// 隔离的渲染面，聚合进度与逐任务结果。
package export

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/storycard/renderer"
)

// DefaultChunkSize 是每块并发渲染的任务数上限。
const DefaultChunkSize = 3

// Progress 在每个块完成后上报一次。
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Result 与提交的任务按 ID 一一对应：要么有图像数据，要么有错误描述，
// 不会两者皆有。单个任务失败不会中止整个批次。
type Result struct {
	ID         string `json:"id"`
	PageNumber int    `json:"pageNumber"`
	Image      []byte `json:"-"`
	Err        string `json:"error,omitempty"`
}

// Failed 报告该任务是否失败。
func (r Result) Failed() bool { return r.Err != "" }

// SurfaceFactory 为一个 worker 创建独占的渲染面。
// worker 与调度线程之间除了不可变任务与返回结果外不共享可变状态。
type SurfaceFactory func() renderer.PageRenderer

// Scheduler 按块派发批量渲染：一个块内的任务并发执行，整块完成后才
// 派发下一块，并上报一次进度。
type Scheduler struct {
	chunkSize  int
	newSurface SurfaceFactory
	log        *zap.Logger
}

// SchedulerOptions 配置调度器。
type SchedulerOptions struct {
	ChunkSize int         // <=0 时取 DefaultChunkSize
	Log       *zap.Logger // 缺省为 zap.NewNop()
}

// NewScheduler 创建批量导出调度器。
func NewScheduler(newSurface SurfaceFactory, opts SchedulerOptions) *Scheduler {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{chunkSize: chunk, newSurface: newSurface, log: log}
}

// Run 执行一个批次，返回与 tasks 一一对应（按提交顺序）的结果。
// onProgress 在每个块完成后被调用一次；可以为 nil。
//
// 取消是尽力而为的：已派发的块会跑完，未派发的块整体跳过并以错误
// 结果占位，保证结果数量始终等于任务数量。
func (s *Scheduler) Run(ctx context.Context, tasks []*renderer.Task, onProgress func(Progress)) ([]Result, error) {
	if s.newSurface == nil {
		return nil, fmt.Errorf("export: 缺少渲染面工厂")
	}
	total := len(tasks)
	results := make([]Result, total)

	for start := 0; start < total; start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			for i := start; i < total; i++ {
				results[i] = Result{ID: tasks[i].ID, PageNumber: tasks[i].PageNumber, Err: "批量导出已取消"}
			}
			return results, fmt.Errorf("export: 批量导出被取消: %w", err)
		}

		end := min(start+s.chunkSize, total)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = s.renderOne(tasks[idx])
			}(i)
		}
		wg.Wait()

		if onProgress != nil {
			onProgress(Progress{Completed: end, Total: total})
		}
		s.log.Debug("导出块完成", zap.Int("completed", end), zap.Int("total", total))
	}
	return results, nil
}

// renderOne 渲染单个任务。渲染面异常（panic）只终结本次尝试，
// 以错误结果返回，绝不跨 worker 边界抛出。
func (s *Scheduler) renderOne(task *renderer.Task) (res Result) {
	res = Result{ID: task.ID, PageNumber: task.PageNumber}
	defer func() {
		if r := recover(); r != nil {
			res.Image = nil
			res.Err = fmt.Sprintf("渲染面不可用: %v", r)
			s.log.Error("渲染任务异常", zap.String("task", task.ID), zap.Any("panic", r))
		}
	}()

	surface := s.newSurface()
	img, err := surface.Render(task)
	if err != nil {
		s.log.Warn("渲染任务失败", zap.String("task", task.ID), zap.Int("page", task.PageNumber), zap.Error(err))
		res.Err = err.Error()
		return res
	}
	res.Image = img
	return res
}

// CombineErrors 把一批结果中的任务级错误聚合为一个 error；全部成功时返回 nil。
func CombineErrors(results []Result) error {
	var err error
	for _, res := range results {
		if res.Failed() {
			err = multierr.Append(err, fmt.Errorf("第 %d 页（任务 %s）: %s", res.PageNumber, res.ID, res.Err))
		}
	}
	return err
}
