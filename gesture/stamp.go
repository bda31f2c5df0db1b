package gesture

// StampSlot is a one-slot mailbox between the signature pad and the
// placement gesture. Rendering a signature fills the slot, the next
// placement click consumes it, and rendering again before placing
// simply replaces the pending image. The slot survives tool switches.
type StampSlot struct {
	payload []byte
}

// NewStampSlot returns an empty slot.
func NewStampSlot() *StampSlot { return &StampSlot{} }

// Put stores an encoded signature image, replacing any pending one.
func (s *StampSlot) Put(payload []byte) {
	s.payload = payload
}

// Take removes and returns the pending image. The second return is
// false when the slot is empty.
func (s *StampSlot) Take() ([]byte, bool) {
	if s.payload == nil {
		return nil, false
	}
	p := s.payload
	s.payload = nil
	return p, true
}

// Peek returns the pending image without consuming it, for preview
// rendering. Placement must go through Take.
func (s *StampSlot) Peek() ([]byte, bool) {
	if s.payload == nil {
		return nil, false
	}
	return append([]byte(nil), s.payload...), true
}

// Ready reports whether an image is waiting to be placed.
func (s *StampSlot) Ready() bool { return s.payload != nil }

// Clear discards any pending image.
func (s *StampSlot) Clear() { s.payload = nil }
