// Package testpdf builds small well-formed PDF files in memory for
// tests, with a classic cross-reference table and correct byte
// offsets.
package testpdf

import (
	"bytes"
	"fmt"
)

// Doc accumulates numbered objects and renders the final file.
type Doc struct {
	buf     bytes.Buffer
	offsets []int64 // offsets[i] is the byte offset of object i+1
}

// Build returns a PDF with the given number of pages. Every page
// inherits its MediaBox (612x792) from the page tree node and carries
// one small uncompressed content stream.
func Build(pages int) []byte {
	return BuildWithBox(pages, [4]float64{0, 0, 612, 792})
}

// BuildWithBox is Build with an explicit MediaBox on the page tree
// node.
func BuildWithBox(pages int, box [4]float64) []byte {
	d := &Doc{}
	d.buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}

	d.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	d.addObject(2, fmt.Sprintf("<< /Type /Pages /Kids [ %s] /Count %d /MediaBox [ %g %g %g %g ] >>",
		kids, pages, box[0], box[1], box[2], box[3]))
	for i := 0; i < pages; i++ {
		d.addObject(3+i, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents %d 0 R /Resources << >> >>", 3+pages+i))
	}
	for i := 0; i < pages; i++ {
		content := "q Q\n"
		d.addObject(3+pages+i, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content))
	}

	return d.finish()
}

func (d *Doc) addObject(id int, body string) {
	for len(d.offsets) < id {
		d.offsets = append(d.offsets, 0)
	}
	d.offsets[id-1] = int64(d.buf.Len())
	fmt.Fprintf(&d.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

func (d *Doc) finish() []byte {
	xrefStart := d.buf.Len()
	fmt.Fprintf(&d.buf, "xref\n0 %d\n", len(d.offsets)+1)
	d.buf.WriteString("0000000000 65535 f \n")
	for _, off := range d.offsets {
		fmt.Fprintf(&d.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&d.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(d.offsets)+1, xrefStart)
	return d.buf.Bytes()
}
