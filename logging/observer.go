package logging

import (
	"fmt"
	"sync"
)

// ObserverLogger is a Logger that also appends every formatted line to an
// in-memory buffer and, if a subscriber is set, invokes it synchronously.
// rotera.OptimizeProject uses one as its top-level logger to satisfy
// spec.md §6's "log callback receives each line as it is emitted" / "log
// buffer is cleared at the start of every top-level solve" requirements.
type ObserverLogger struct {
	Logger

	mu         sync.Mutex
	lines      []string
	subscriber func(string)
}

// NewObserverLogger wraps an existing Logger with line capture.
func NewObserverLogger(base Logger) *ObserverLogger {
	return &ObserverLogger{Logger: base}
}

// Subscribe registers a callback invoked with every line appended after this
// call. Passing nil clears the subscriber.
func (o *ObserverLogger) Subscribe(cb func(string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscriber = cb
}

// Reset clears the captured buffer, matching "log buffer cleared at the
// start of every top-level solve."
func (o *ObserverLogger) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = nil
}

// Lines returns a snapshot of every captured line, in emission order.
func (o *ObserverLogger) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}

// Tag appends a single bracket-tagged structured log line, e.g.
// logger.Tag("Init", "seeding %d points", n). This is the shape every
// solve-phase log line in rotera takes: "[Init] seeding 4 points".
func (o *ObserverLogger) Tag(tag, template string, args ...interface{}) {
	line := "[" + tag + "] " + fmt.Sprintf(template, args...)
	o.mu.Lock()
	o.lines = append(o.lines, line)
	sub := o.subscriber
	o.mu.Unlock()
	if sub != nil {
		sub(line)
	}
	o.Logger.Infof("%s", line)
}
