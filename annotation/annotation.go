// Package annotation owns the annotation collections for an editing
// session: signature stamps, free text, and highlight marks.
//
// The store is the single source of truth for annotation state. All
// mutations are synchronous, and updating or deleting an id that no
// longer exists is a silent no-op: interaction events can race with
// deletions (a drag update arriving on the same frame as a delete click),
// and robustness wins over strictness there.
package annotation

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// Signature is a placed signature stamp. Position and size are in
// document-space units; Payload holds the encoded raster image produced
// by the signature pad.
type Signature struct {
	ID      string  `json:"id"`
	Page    int     `json:"page"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Payload []byte  `json:"payload,omitempty"`
}

// Text is a free-text annotation. Its rendered size is controlled by the
// font size; it has no width/height of its own.
type Text struct {
	ID       string  `json:"id"`
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Content  string  `json:"content"`
	FontSize float64 `json:"font_size"`
	Color    RGB     `json:"color"`
}

// Empty reports whether the text has no content after trimming
// whitespace. Empty texts are never persisted past an edit session and
// are skipped during bake-out.
func (t Text) Empty() bool {
	return strings.TrimSpace(t.Content) == ""
}

// Highlight is a rectangular highlight mark. Highlights are created by a
// rubber-band gesture and mutated only by deletion.
type Highlight struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SignaturePatch carries partial field updates for a signature. Nil
// fields are left unchanged.
type SignaturePatch struct {
	X, Y          *float64
	Width, Height *float64
}

// TextPatch carries partial field updates for a text annotation.
type TextPatch struct {
	X, Y     *float64
	Content  *string
	FontSize *float64
}

// Snapshot is a deep copy of the store contents, safe to hand to the
// bake-out pipeline while the session continues.
type Snapshot struct {
	Signatures []Signature `json:"signatures"`
	Texts      []Text      `json:"texts"`
	Highlights []Highlight `json:"highlights"`
}

// Empty reports whether the snapshot holds no annotations at all.
func (s Snapshot) Empty() bool {
	return len(s.Signatures) == 0 && len(s.Texts) == 0 && len(s.Highlights) == 0
}

// Store holds the three annotation collections. Iteration order is
// insertion order; it is stable but carries no rendering significance.
// A Store is not safe for concurrent use: all mutations originate from
// the single UI event stream.
type Store struct {
	signatures []Signature
	texts      []Text
	highlights []Highlight
	onChange   func()
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// SetOnChange registers a callback fired after every effective mutation,
// so an overlay layer can re-render without the store depending on any
// particular UI framework.
func (s *Store) SetOnChange(fn func()) { s.onChange = fn }

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// AddSignature inserts a signature and returns its generated id. Any id
// already set on the value is replaced.
func (s *Store) AddSignature(sig Signature) string {
	sig.ID = newID()
	s.signatures = append(s.signatures, sig)
	s.notify()
	return sig.ID
}

// AddText inserts a text annotation and returns its generated id.
func (s *Store) AddText(t Text) string {
	t.ID = newID()
	s.texts = append(s.texts, t)
	s.notify()
	return t.ID
}

// AddHighlight inserts a highlight and returns its generated id.
func (s *Store) AddHighlight(h Highlight) string {
	h.ID = newID()
	s.highlights = append(s.highlights, h)
	s.notify()
	return h.ID
}

// UpdateSignature applies a partial update. Unknown ids are ignored.
func (s *Store) UpdateSignature(id string, p SignaturePatch) {
	for i := range s.signatures {
		if s.signatures[i].ID != id {
			continue
		}
		sig := &s.signatures[i]
		if p.X != nil {
			sig.X = *p.X
		}
		if p.Y != nil {
			sig.Y = *p.Y
		}
		if p.Width != nil {
			sig.Width = *p.Width
		}
		if p.Height != nil {
			sig.Height = *p.Height
		}
		s.notify()
		return
	}
}

// UpdateText applies a partial update. Unknown ids are ignored.
func (s *Store) UpdateText(id string, p TextPatch) {
	for i := range s.texts {
		if s.texts[i].ID != id {
			continue
		}
		t := &s.texts[i]
		if p.X != nil {
			t.X = *p.X
		}
		if p.Y != nil {
			t.Y = *p.Y
		}
		if p.Content != nil {
			t.Content = *p.Content
		}
		if p.FontSize != nil {
			t.FontSize = *p.FontSize
		}
		s.notify()
		return
	}
}

// DeleteSignature removes a signature. Unknown ids are ignored.
func (s *Store) DeleteSignature(id string) {
	for i := range s.signatures {
		if s.signatures[i].ID == id {
			s.signatures = append(s.signatures[:i], s.signatures[i+1:]...)
			s.notify()
			return
		}
	}
}

// DeleteText removes a text annotation. Unknown ids are ignored.
func (s *Store) DeleteText(id string) {
	for i := range s.texts {
		if s.texts[i].ID == id {
			s.texts = append(s.texts[:i], s.texts[i+1:]...)
			s.notify()
			return
		}
	}
}

// DeleteHighlight removes a highlight. Unknown ids are ignored.
func (s *Store) DeleteHighlight(id string) {
	for i := range s.highlights {
		if s.highlights[i].ID == id {
			s.highlights = append(s.highlights[:i], s.highlights[i+1:]...)
			s.notify()
			return
		}
	}
}

// SignatureByID returns a copy of the signature with the given id.
func (s *Store) SignatureByID(id string) (Signature, bool) {
	for _, sig := range s.signatures {
		if sig.ID == id {
			return sig, true
		}
	}
	return Signature{}, false
}

// TextByID returns a copy of the text annotation with the given id.
func (s *Store) TextByID(id string) (Text, bool) {
	for _, t := range s.texts {
		if t.ID == id {
			return t, true
		}
	}
	return Text{}, false
}

// HighlightByID returns a copy of the highlight with the given id.
func (s *Store) HighlightByID(id string) (Highlight, bool) {
	for _, h := range s.highlights {
		if h.ID == id {
			return h, true
		}
	}
	return Highlight{}, false
}

// Signatures returns a copy of the signature collection in insertion
// order.
func (s *Store) Signatures() []Signature {
	out := make([]Signature, len(s.signatures))
	copy(out, s.signatures)
	return out
}

// Texts returns a copy of the text collection in insertion order.
func (s *Store) Texts() []Text {
	out := make([]Text, len(s.texts))
	copy(out, s.texts)
	return out
}

// Highlights returns a copy of the highlight collection in insertion
// order.
func (s *Store) Highlights() []Highlight {
	out := make([]Highlight, len(s.highlights))
	copy(out, s.highlights)
	return out
}

// Len returns the total number of annotations across all collections.
func (s *Store) Len() int {
	return len(s.signatures) + len(s.texts) + len(s.highlights)
}

// Reset clears all three collections.
func (s *Store) Reset() {
	s.signatures = nil
	s.texts = nil
	s.highlights = nil
	s.notify()
}

// Snapshot deep-copies the store contents for the bake-out pipeline.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Signatures: make([]Signature, len(s.signatures)),
		Texts:      make([]Text, len(s.texts)),
		Highlights: make([]Highlight, len(s.highlights)),
	}
	copy(snap.Signatures, s.signatures)
	copy(snap.Texts, s.texts)
	copy(snap.Highlights, s.highlights)
	for i, sig := range snap.Signatures {
		if len(sig.Payload) > 0 {
			snap.Signatures[i].Payload = append([]byte(nil), sig.Payload...)
		}
	}
	return snap
}

// Restore replaces the store contents with the snapshot, assigning fresh
// ids to entries that carry none. Used when loading a serialized
// annotation set.
func (s *Store) Restore(snap Snapshot) {
	s.signatures = make([]Signature, len(snap.Signatures))
	copy(s.signatures, snap.Signatures)
	s.texts = make([]Text, len(snap.Texts))
	copy(s.texts, snap.Texts)
	s.highlights = make([]Highlight, len(snap.Highlights))
	copy(s.highlights, snap.Highlights)
	for i := range s.signatures {
		if s.signatures[i].ID == "" {
			s.signatures[i].ID = newID()
		}
	}
	for i := range s.texts {
		if s.texts[i].ID == "" {
			s.texts[i].ID = newID()
		}
	}
	for i := range s.highlights {
		if s.highlights[i].ID == "" {
			s.highlights[i].ID = newID()
		}
	}
	s.notify()
}

// newID returns a short random token, collision resistant within a
// session. The store is never persisted, so global uniqueness is not
// required.
func newID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
