// Package reflow 实现去抖的单槽任务调度：提交新请求会原子地使先前
// 未触发或执行中的请求失去提交结果的资格。交互式重排与预览渲染都走
// 这一纪律，避免过期结果乱序落地。
package reflow

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay 是参考的安静窗口：编辑停止 300ms 后才真正触发。
const DefaultDelay = 300 * time.Millisecond

// Scheduler 是单槽去抖调度器。任意时刻最多一个待触发任务；
// 新的 Submit 会取消并替换它。
type Scheduler struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	stopped bool
}

// NewScheduler 创建调度器；delay<=0 时使用 DefaultDelay。
func NewScheduler(delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{delay: delay}
}

// Submit 请求在安静窗口后执行 run。窗口未到期时再次 Submit 会重置等待，
// 并取消先前任务的上下文；已经在执行中的任务也会收到取消信号。
//
// run 必须在提交自己的结果之前检查 ctx：ctx 已取消说明本次执行已被
// 更新的请求取代，结果必须丢弃。
func (s *Scheduler) Submit(run func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = time.AfterFunc(s.delay, func() { run(ctx) })
}

// Commit 在与 Submit 相同的互斥下执行 commit，返回是否执行。
// ctx 已被更新的请求取消（或调度器已停止）时 commit 不会执行；
// 持锁期间新的 Submit 无法插入取消，杜绝“检查后、提交前”被取代的窗口。
func (s *Scheduler) Commit(ctx context.Context, commit func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || ctx.Err() != nil {
		return false
	}
	commit()
	return true
}

// Stop 取消所有待触发与执行中的任务；之后的 Submit 不再生效。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
