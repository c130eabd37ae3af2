package coord

// Stack is a coordinator's navigation history. Not safe for concurrent use;
// Tree guards it.
type Stack struct {
	entries []Route
}

func NewStack() *Stack {
	return &Stack{entries: make([]Route, 0)}
}

// Push adds r on top.
func (s *Stack) Push(r Route) {
	s.entries = append(s.entries, r)
}

// Pop removes and returns the top route.
func (s *Stack) Pop() (Route, bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	r := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return r, true
}

// Peek returns the top route without removing it.
func (s *Stack) Peek() (Route, bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *Stack) IsEmpty() bool { return len(s.entries) == 0 }

func (s *Stack) Len() int { return len(s.entries) }

// Routes returns the entries bottom first.
func (s *Stack) Routes() []Route {
	out := make([]Route, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear removes all entries.
func (s *Stack) Clear() {
	s.entries = s.entries[:0]
}
