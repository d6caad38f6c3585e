package helpers

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Timer records nested phases of work. A nil timer is valid and records
// nothing, so callers never need to check whether timing is enabled.
type Timer struct {
	data  []timerData
	mutex sync.Mutex
}

type timerData struct {
	time  time.Time
	name  string
	isEnd bool
}

func (t *Timer) Begin(name string) {
	if t != nil {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		t.data = append(t.data, timerData{name: name, time: time.Now()})
	}
}

func (t *Timer) End(name string) {
	if t != nil {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		t.data = append(t.data, timerData{name: name, time: time.Now(), isEnd: true})
	}
}

// Log writes one debug line per finished phase, indented by nesting depth.
func (t *Timer) Log(logger *log.Logger) {
	if t == nil || logger == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	type pair struct {
		timerData
		depth int
	}

	var stack []pair
	for _, item := range t.data {
		if !item.isEnd {
			stack = append(stack, pair{timerData: item, depth: len(stack)})
			continue
		}
		last := len(stack) - 1
		top := stack[last]
		stack = stack[:last]
		if item.name != top.name {
			panic("Internal error")
		}
		logger.Debug(strings.Repeat("  ", top.depth)+top.name, "elapsed", item.time.Sub(top.time))
	}
}
