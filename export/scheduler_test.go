package export

import (
	"context"
	"fmt"
	"testing"

	"github.com/ByLCY/storycard/renderer"
)

// fakeSurface 是测试用渲染面：按任务 ID 决定成败，不做真实绘制。
type fakeSurface struct {
	fail  map[string]bool
	panic map[string]bool
}

func (f *fakeSurface) Render(task *renderer.Task) ([]byte, error) {
	if f.panic[task.ID] {
		panic("surface lost")
	}
	if f.fail[task.ID] {
		return nil, fmt.Errorf("背景图不可达")
	}
	return []byte("png-" + task.ID), nil
}

func makeTasks(n int) []*renderer.Task {
	tasks := make([]*renderer.Task, n)
	for i := range tasks {
		tasks[i] = &renderer.Task{ID: fmt.Sprintf("task-%d", i), PageNumber: i + 1}
	}
	return tasks
}

// TestRunBatchProgressChunks 对应参考场景：7 个任务、块大小 3，
// 应上报 3、6、7 三次进度，并返回 7 个按提交顺序对应的结果。
func TestRunBatchProgressChunks(t *testing.T) {
	s := NewScheduler(func() renderer.PageRenderer { return &fakeSurface{} }, SchedulerOptions{ChunkSize: 3})
	tasks := makeTasks(7)

	var progress []Progress
	results, err := s.Run(context.Background(), tasks, func(p Progress) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Progress{{3, 7}, {6, 7}, {7, 7}}
	if len(progress) != len(want) {
		t.Fatalf("进度事件数不符: got=%v want=%v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("第 %d 次进度不符: got=%+v want=%+v", i+1, progress[i], want[i])
		}
	}

	if len(results) != len(tasks) {
		t.Fatalf("结果数必须等于任务数: got=%d want=%d", len(results), len(tasks))
	}
	for i, res := range results {
		if res.ID != tasks[i].ID {
			t.Fatalf("结果顺序与提交顺序不符: 第 %d 个结果 id=%s", i, res.ID)
		}
		if res.Failed() || len(res.Image) == 0 {
			t.Fatalf("任务 %s 应成功: %+v", res.ID, res)
		}
	}
}

// TestRunBatchFailureIsolated 验证单任务失败不中止批次，且结果为
// 图像与错误二者取其一，绝不同时存在。
func TestRunBatchFailureIsolated(t *testing.T) {
	s := NewScheduler(func() renderer.PageRenderer {
		return &fakeSurface{fail: map[string]bool{"task-2": true}}
	}, SchedulerOptions{ChunkSize: 3})
	tasks := makeTasks(5)

	results, err := s.Run(context.Background(), tasks, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, res := range results {
		hasImage := len(res.Image) > 0
		hasErr := res.Err != ""
		if hasImage == hasErr {
			t.Fatalf("结果必须且只能有图像或错误之一: %+v", res)
		}
		if res.ID == "task-2" && !hasErr {
			t.Fatalf("task-2 应失败")
		}
	}
	if CombineErrors(results) == nil {
		t.Fatalf("聚合错误不应为空")
	}
}

// TestRunBatchPanicCaptured 验证渲染面异常只终结单个任务。
func TestRunBatchPanicCaptured(t *testing.T) {
	s := NewScheduler(func() renderer.PageRenderer {
		return &fakeSurface{panic: map[string]bool{"task-1": true}}
	}, SchedulerOptions{ChunkSize: 2})
	results, err := s.Run(context.Background(), makeTasks(3), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[1].Failed() {
		t.Fatalf("panic 任务应以错误结果收场: %+v", results[1])
	}
	if results[0].Failed() || results[2].Failed() {
		t.Fatalf("其余任务不应受影响")
	}
}

// TestRunBatchCancelSkipsUndispatched 验证取消是尽力而为的：
// 已派发的块跑完，未派发的块以错误结果占位。
func TestRunBatchCancelSkipsUndispatched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(func() renderer.PageRenderer { return &fakeSurface{} }, SchedulerOptions{ChunkSize: 3})
	tasks := makeTasks(7)

	results, err := s.Run(ctx, tasks, func(p Progress) {
		if p.Completed == 3 {
			cancel() // 第一块完成后取消
		}
	})
	if err == nil {
		t.Fatalf("取消后 Run 应返回错误")
	}
	if len(results) != len(tasks) {
		t.Fatalf("即使取消也必须一任务一结果: got=%d", len(results))
	}
	for i, res := range results {
		if i < 3 && res.Failed() {
			t.Fatalf("已派发块的任务 %s 应已完成", res.ID)
		}
		if i >= 3 && !res.Failed() {
			t.Fatalf("未派发块的任务 %s 应标记为取消", res.ID)
		}
	}
}

// TestCombineErrorsAllSuccess 验证全部成功时无聚合错误。
func TestCombineErrorsAllSuccess(t *testing.T) {
	results := []Result{{ID: "a", Image: []byte{1}}, {ID: "b", Image: []byte{2}}}
	if err := CombineErrors(results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
