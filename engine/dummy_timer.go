package engine

import (
	"fmt"
	"sync"
	"time"
)

type dummyEvent struct {
	t time.Time
	f func()
}

// DummyTimer is a virtual-clock timer for tests. Time only advances
// through MoveForward.
type DummyTimer struct {
	now    time.Time
	events []dummyEvent
	lock   sync.Mutex
}

func NewDummyTimer() *DummyTimer {
	return &DummyTimer{
		now:    time.Unix(0, 0).UTC(),
		events: make([]dummyEvent, 0),
	}
}

func (tm *DummyTimer) Now() time.Time {
	tm.lock.Lock()
	defer tm.lock.Unlock()
	return tm.now
}

// MoveForward advances the clock and fires every event that is now in
// the past.
func (tm *DummyTimer) MoveForward(d time.Duration) {
	events := func() []dummyEvent {
		tm.lock.Lock()
		defer tm.lock.Unlock()
		tm.now = tm.now.Add(d)
		ret := make([]dummyEvent, len(tm.events))
		copy(ret, tm.events)
		return ret
	}()

	for i, e := range events {
		if e.f != nil && e.t.Before(tm.Now()) {
			e.f()
			events[i].f = nil
		}
	}

	tm.lock.Lock()
	defer tm.lock.Unlock()
	tm.events = events
}

func (tm *DummyTimer) Schedule(d time.Duration, f func()) func() error {
	tm.lock.Lock()
	defer tm.lock.Unlock()

	t := tm.now.Add(d)
	idx := len(tm.events)
	for i := range tm.events {
		if tm.events[i].f == nil {
			idx = i
			break
		}
	}
	ev := dummyEvent{t: t, f: f}
	if idx == len(tm.events) {
		tm.events = append(tm.events, ev)
	} else {
		tm.events[idx] = ev
	}

	return func() error {
		tm.lock.Lock()
		defer tm.lock.Unlock()
		if t.Before(tm.now) {
			return nil // already past
		}
		if idx < len(tm.events) && tm.events[idx].t.Equal(t) && tm.events[idx].f != nil {
			tm.events[idx].f = nil
			return nil
		}
		return fmt.Errorf("event has already been canceled")
	}
}

func (tm *DummyTimer) Sleep(d time.Duration) {
	ch := make(chan struct{})
	tm.Schedule(d, func() {
		close(ch)
	})
	<-ch
}

func (*DummyTimer) Nonce() []byte {
	return []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
}
