package dice

import "sync"

// Sequence is a Source that replays fixed die faces in order, wrapping around
// when exhausted. Faces are 1-based and are clamped into the die's range.
type Sequence struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewSequence returns a Sequence replaying faces.
func NewSequence(faces ...int) *Sequence {
	return &Sequence{faces: faces}
}

// IntN returns the next face minus one, clamped to [0, n).
func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faces) == 0 {
		return 0
	}
	f := s.faces[s.next%len(s.faces)]
	s.next++
	return min(max(f-1, 0), n-1)
}
