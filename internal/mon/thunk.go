package mon

import (
	"sort"
	"sync"
	"time"
)

// Thunk is a named histogram of how long some operation takes.
type Thunk struct {
	Histogram
	name string
}

// Timer is returned by Thunk.Start and records the elapsed time on Stop.
type Timer struct {
	h   *Histogram
	now time.Time
}

// Start begins timing an execution.
func (t *Thunk) Start() Timer {
	t.start()
	return Timer{h: &t.Histogram, now: time.Now()}
}

// Stop records the time since the timer was started.
func (tm Timer) Stop() { tm.h.done(int64(time.Since(tm.now))) }

// Name returns the name the thunk was registered with.
func (t *Thunk) Name() string { return t.name }

var thunks struct {
	sync.Mutex
	byName map[string]*Thunk
}

// NewThunk returns the thunk registered with the name, creating it if it
// does not exist yet. It is intended to be called during package
// initialization.
func NewThunk(name string) *Thunk {
	thunks.Lock()
	defer thunks.Unlock()

	if t, ok := thunks.byName[name]; ok {
		return t
	}
	if thunks.byName == nil {
		thunks.byName = make(map[string]*Thunk)
	}
	t := &Thunk{name: name}
	thunks.byName[name] = t
	return t
}

// Thunks returns every registered thunk sorted by name.
func Thunks() []*Thunk {
	thunks.Lock()
	out := make([]*Thunk, 0, len(thunks.byName))
	for _, t := range thunks.byName {
		out = append(out, t)
	}
	thunks.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
