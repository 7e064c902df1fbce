package mcu

import "sort"

// TimerFunc is called when a cycle timer expires. when is the cycle the timer
// was due at; the return value is the absolute cycle to fire again, or 0 to stop.
type TimerFunc func(m *MCU, when uint64) uint64

// TimerID identifies a registered cycle timer.
type TimerID int

type cycleTimer struct {
	id   TimerID
	when uint64
	fn   TimerFunc
}

// timerQueue keeps pending timers sorted by deadline. A handful of timers are
// live at any time, so a sorted slice beats a heap here.
type timerQueue struct {
	pending []cycleTimer
	lastID  TimerID
}

func (q *timerQueue) insert(t cycleTimer) {
	i := sort.Search(len(q.pending), func(i int) bool { return q.pending[i].when > t.when })
	q.pending = append(q.pending, cycleTimer{})
	copy(q.pending[i+1:], q.pending[i:])
	q.pending[i] = t
}

func (q *timerQueue) next() (uint64, bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	return q.pending[0].when, true
}

func (q *timerQueue) cancel(id TimerID) bool {
	for i, t := range q.pending {
		if t.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (q *timerQueue) process(m *MCU) {
	for len(q.pending) > 0 && q.pending[0].when <= m.Cycle {
		t := q.pending[0]
		q.pending = q.pending[1:]
		next := t.fn(m, t.when)
		if next == 0 {
			continue
		}
		if next <= t.when {
			next = t.when + 1
		}
		t.when = next
		q.insert(t)
	}
}

// RegisterTimer schedules fn to fire delay cycles from now.
func (m *MCU) RegisterTimer(delay uint64, fn TimerFunc) TimerID {
	m.timers.lastID++
	id := m.timers.lastID
	m.timers.insert(cycleTimer{id: id, when: m.Cycle + delay, fn: fn})
	return id
}

// RegisterTimerUsec schedules fn to fire after us virtual microseconds.
func (m *MCU) RegisterTimerUsec(us uint64, fn TimerFunc) TimerID {
	return m.RegisterTimer(m.UsecToCycles(us), fn)
}

// CancelTimer removes a pending timer. It reports whether the timer was pending.
func (m *MCU) CancelTimer(id TimerID) bool { return m.timers.cancel(id) }

// NextTimer returns the deadline of the earliest pending timer.
func (m *MCU) NextTimer() (uint64, bool) { return m.timers.next() }
