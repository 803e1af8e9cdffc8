package engine

import (
	"container/heap"
	"time"
)

// TimerID identifies a scheduled callback. The zero value is never issued.
type TimerID uint64

type timerItem struct {
	id    TimerID
	due   time.Time
	seq   uint64 // FIFO among timers with the same due time
	fn    func()
	index int // heap index, -1 once removed
}

// timerQueue implements heap.Interface, ordered by (due, seq).
type timerQueue []*timerItem

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x interface{}) {
	item := x.(*timerItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// Scheduler is a virtual clock with one-shot timers.
// It is not safe for concurrent use; the Engine actor is its only caller.
// Callbacks run serially inside Advance and may schedule or cancel timers.
type Scheduler struct {
	now    time.Time
	seq    uint64
	queue  timerQueue
	byID   map[TimerID]*timerItem
	nextID TimerID
}

// NewScheduler creates a scheduler whose clock reads start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{
		now:  start,
		byID: make(map[TimerID]*timerItem),
	}
}

// Now returns the virtual time.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After schedules fn to run d from now. Negative delays run at now.
func (s *Scheduler) After(d time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	s.nextID++
	s.seq++
	item := &timerItem{
		id:  s.nextID,
		due: s.now.Add(d),
		seq: s.seq,
		fn:  fn,
	}
	heap.Push(&s.queue, item)
	s.byID[item.id] = item
	return item.id
}

// Cancel removes a pending timer. It reports false if the timer already
// fired, was cancelled, or never existed.
func (s *Scheduler) Cancel(id TimerID) bool {
	item, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	heap.Remove(&s.queue, item.index)
	return true
}

// CancelAll drops every pending timer.
func (s *Scheduler) CancelAll() {
	for _, item := range s.queue {
		item.index = -1
	}
	s.queue = nil
	s.byID = make(map[TimerID]*timerItem)
}

// Pending returns the number of timers waiting to fire.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Advance moves the clock forward by d, firing every timer that falls due
// in order. The clock reads each timer's due time while its callback runs.
// It returns the number of callbacks fired.
func (s *Scheduler) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := s.now.Add(d)
	fired := 0
	for len(s.queue) > 0 && !s.queue[0].due.After(target) {
		item := heap.Pop(&s.queue).(*timerItem)
		delete(s.byID, item.id)
		s.now = item.due
		item.fn()
		fired++
	}
	s.now = target
	return fired
}
