package traversal

// Recorder owns the traversal sequence of one test run: the completed set in
// arrival order, plus the in-flight current traversal.
type Recorder struct {
	current   *Traversal
	completed []*Traversal
}

func NewRecorder() *Recorder {
	return &Recorder{current: &Traversal{}}
}

// Current returns the in-flight traversal. Never nil.
func (r *Recorder) Current() *Traversal { return r.current }

// Completed returns the finished traversals in the order they completed.
func (r *Recorder) Completed() []*Traversal { return r.completed }

// All returns the serializer's input: every completed traversal, plus the
// current one when it has opened at least one section. The returned slice is
// freshly allocated; the traversals are shared.
func (r *Recorder) All() []*Traversal {
	out := make([]*Traversal, 0, len(r.completed)+1)
	out = append(out, r.completed...)
	if len(r.current.sections) > 0 {
		out = append(out, r.current)
	}
	return out
}

// FinishCurrent moves the current traversal into the completed set and
// installs a fresh one. The finished traversal is returned for inspection.
func (r *Recorder) FinishCurrent() *Traversal {
	done := r.current
	r.completed = append(r.completed, done)
	r.current = &Traversal{}
	return done
}

// Reset drops all state, ready for a new run.
func (r *Recorder) Reset() {
	r.current = &Traversal{}
	r.completed = nil
}
