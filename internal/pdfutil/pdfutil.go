// Package pdfutil wraps the low-level PDF reader with the page and
// value helpers the export pipeline needs.
package pdfutil

import (
	"fmt"
	"strconv"
	"strings"

	pdflib "github.com/digitorus/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Letter-size fallback for documents whose page tree carries no
// MediaBox at all.
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
)

// PageDict returns the dictionary of the 1-based page n.
func PageDict(r *pdflib.Reader, n int) (pdflib.Value, error) {
	if n < 1 || n > r.NumPage() {
		return pdflib.Value{}, fmt.Errorf("page %d out of range (1-%d)", n, r.NumPage())
	}
	page := r.Page(n)
	if page.V.IsNull() {
		return pdflib.Value{}, fmt.Errorf("page %d not found", n)
	}
	return page.V, nil
}

// PageRef returns the object id and generation of the 1-based page n.
func PageRef(r *pdflib.Reader, n int) (uint32, uint32, error) {
	v, err := PageDict(r, n)
	if err != nil {
		return 0, 0, err
	}
	ptr := v.GetPtr()
	if ptr.GetID() == 0 {
		return 0, 0, fmt.Errorf("page %d has no object reference", n)
	}
	return ptr.GetID(), uint32(ptr.GetGen()), nil
}

// MediaBox resolves the page's media box, walking up the Parent chain
// for inherited values per the page tree rules.
func MediaBox(page pdflib.Value) [4]float64 {
	node := page
	for depth := 0; depth < 32; depth++ {
		mb := node.Key("MediaBox")
		if !mb.IsNull() && mb.Kind() == pdflib.Array && mb.Len() == 4 {
			var box [4]float64
			for i := 0; i < 4; i++ {
				box[i] = mb.Index(i).Float64()
			}
			return box
		}
		parent := node.Key("Parent")
		if parent.IsNull() {
			break
		}
		node = parent
	}
	return [4]float64{0, 0, DefaultPageWidth, DefaultPageHeight}
}

// PageSize returns width and height of the 1-based page n.
func PageSize(r *pdflib.Reader, n int) (float64, float64, error) {
	v, err := PageDict(r, n)
	if err != nil {
		return 0, 0, err
	}
	box := MediaBox(v)
	return box[2] - box[0], box[3] - box[1], nil
}

// ContentRefs returns the indirect references of the page's existing
// content streams, serialized as "id gen R" tokens. A page may carry a
// single stream or an array of them.
func ContentRefs(page pdflib.Value) []string {
	contents := page.Key("Contents")
	if contents.IsNull() {
		return nil
	}
	var refs []string
	if contents.Kind() == pdflib.Array {
		for i := 0; i < contents.Len(); i++ {
			if ptr := contents.Index(i).GetPtr(); ptr.GetID() != 0 {
				refs = append(refs, fmt.Sprintf("%d %d R", ptr.GetID(), ptr.GetGen()))
			}
		}
		return refs
	}
	if ptr := contents.GetPtr(); ptr.GetID() != 0 {
		refs = append(refs, fmt.Sprintf("%d %d R", ptr.GetID(), ptr.GetGen()))
	}
	return refs
}

// SerializeValue renders a resolved PDF value back into token form.
// Values that were reached through an indirect reference come out as
// that reference, everything else is written inline.
func SerializeValue(v pdflib.Value) string {
	if ptr := v.GetPtr(); ptr.GetID() != 0 {
		return fmt.Sprintf("%d %d R", ptr.GetID(), ptr.GetGen())
	}
	switch v.Kind() {
	case pdflib.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case pdflib.Integer:
		return strconv.FormatInt(v.Int64(), 10)
	case pdflib.Real:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case pdflib.String:
		return PDFString(v.RawString())
	case pdflib.Name:
		return "/" + v.Name()
	case pdflib.Array:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			parts = append(parts, SerializeValue(v.Index(i)))
		}
		return "[ " + strings.Join(parts, " ") + " ]"
	case pdflib.Dict:
		var b strings.Builder
		b.WriteString("<< ")
		for _, key := range v.Keys() {
			b.WriteString("/" + key + " " + SerializeValue(v.Key(key)) + " ")
		}
		b.WriteString(">>")
		return b.String()
	}
	return "null"
}

// PDFString encodes text as a PDF string literal. Non-ASCII text is
// written as UTF-16BE with a byte order mark, ASCII stays in escaped
// PDFDocEncoding.
func PDFString(text string) string {
	if !isASCII(text) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		res, _, err := transform.String(enc, text)
		if err != nil {
			panic(err)
		}
		return "(" + res + ")"
	}

	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > '\u007F' {
			return false
		}
	}
	return true
}
