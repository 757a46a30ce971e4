// Package scheduler implements the single-threaded, cooperative,
// task-queue-driven scheduler spec.md §5 describes: a priority queue of
// recompute tasks drained to a fixpoint each turn, not a free-threaded
// worker pool (spec.md §5 "Concurrency & Resource Model").
package scheduler

import "container/heap"

// Priority is a numbered scheduling class; lower values run first
// within a turn. Named after the original's gContentPositionCycleCount
// scheduling classes (content before geometry before pre-write).
type Priority int

const (
	PriorityContent Priority = iota
	PriorityGeometry
	PriorityPreWrite
)

// Task is one unit of queued work.
type Task struct {
	Priority Priority
	Seq      int64 // submission order, breaks priority ties FIFO
	Run      func()
}

// taskHeap is a container/heap.Interface over []*Task, ordered by
// (Priority, Seq).
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue drains queued tasks to a fixpoint (empty queue), the way the
// original's task loop re-runs until no more work is pending, with a
// cycle-loop guard: a task that keeps resubmitting the queue (a
// qualifier cycle, or a display re-measure storm) is blocked after
// maxCyclesPerBlock consecutive re-enters of the same block id, unless
// Force has been called for that block.
type Queue struct {
	heap taskHeap
	seq  int64

	maxCyclesPerBlock int
	cycleCounts       map[int]int
	blocked           map[int]bool
	forced            map[int]bool
}

// NewQueue creates an empty Queue. maxCyclesPerBlock mirrors the
// original's gEICnt-style recursion threshold; spec.md §5 documents the
// same "ten" constant used elsewhere for recursion guards, so that is
// the default here too.
func NewQueue() *Queue {
	return NewQueueWithLimit(10)
}

// NewQueueWithLimit creates an empty Queue with a caller-supplied
// maxCyclesPerBlock, for callers (internal/config's SchedulerConfig) that
// tune the cycle-loop guard instead of taking the default of ten.
func NewQueueWithLimit(maxCyclesPerBlock int) *Queue {
	return &Queue{
		maxCyclesPerBlock: maxCyclesPerBlock,
		cycleCounts:       make(map[int]int),
		blocked:           make(map[int]bool),
		forced:            make(map[int]bool),
	}
}

// Submit enqueues a task at the given priority.
func (q *Queue) Submit(priority Priority, run func()) {
	q.seq++
	heap.Push(&q.heap, &Task{Priority: priority, Seq: q.seq, Run: run})
}

// SubmitForBlock enqueues a task associated with blockID, tracked by
// the cycle-loop guard. If blockID has re-entered more than
// maxCyclesPerBlock times since the last Reset and has not been
// Force'd, the submission is dropped and ok is false.
func (q *Queue) SubmitForBlock(blockID int, priority Priority, run func()) (ok bool) {
	if q.blocked[blockID] {
		if !q.forced[blockID] {
			return false
		}
		q.forced[blockID] = false
		q.Submit(priority, run)
		return true
	}

	q.cycleCounts[blockID]++
	if q.cycleCounts[blockID] > q.maxCyclesPerBlock {
		q.blocked[blockID] = true
		return false
	}
	q.Submit(priority, run)
	return true
}

// Force bypasses the block-loop guard for blockID exactly once: the
// very next SubmitForBlock for that id is admitted regardless of its
// cycle count, after which Force must be called again to admit another
// (spec.md §5 "bypasses the block exactly once").
func (q *Queue) Force(blockID int) {
	q.forced[blockID] = true
}

// Reset clears the cycle-loop guard's state for blockID, used once the
// block has legitimately stabilized and should be eligible for the
// full cycle budget again.
func (q *Queue) Reset(blockID int) {
	delete(q.cycleCounts, blockID)
	delete(q.blocked, blockID)
	delete(q.forced, blockID)
}

// Drain runs queued tasks in priority order until the queue is empty,
// including any tasks newly submitted by a running task (to a
// fixpoint). Returns the number of tasks run.
func (q *Queue) Drain() int {
	ran := 0
	for q.heap.Len() > 0 {
		t := heap.Pop(&q.heap).(*Task)
		t.Run()
		ran++
	}
	return ran
}

// Len reports how many tasks are currently queued.
func (q *Queue) Len() int { return q.heap.Len() }
