package bake

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"

	pdflib "github.com/digitorus/pdf"

	"github.com/ragersky/pdfsigner/internal/pdfutil"
)

const (
	fontResource  = "F1"
	gsResource    = "GSh"
	imagePrefix   = "Im"
	highlightGSCa = HighlightOpacity
)

// bakePage draws all marks for one page into a fresh content stream,
// then rewrites the page dictionary to reference it alongside the
// page's existing streams.
func (context *BakeContext) bakePage(pageNum int, marks *pageMarks) error {
	page, err := pdfutil.PageDict(context.PDFReader, pageNum)
	if err != nil {
		return err
	}
	pageID, _, err := pdfutil.PageRef(context.PDFReader, pageNum)
	if err != nil {
		return err
	}
	box := pdfutil.MediaBox(page)
	pageH := box[3] - box[1]

	var stream bytes.Buffer
	var imageNames []string

	for _, sig := range marks.sigs {
		img, err := context.embedImage(sig.Payload)
		if err != nil {
			return fmt.Errorf("signature %s: %w", sig.ID, err)
		}
		imageNames = appendUnique(imageNames, img.res.Name)

		// Document space hangs from the top-left corner while the page
		// origin sits at the bottom left, hence the vertical flip.
		y := pageH - sig.Y - sig.Height
		fmt.Fprintf(&stream, "q\n")
		fmt.Fprintf(&stream, "  %.2f 0 0 %.2f %.2f %.2f cm\n", sig.Width, sig.Height, sig.X, y)
		fmt.Fprintf(&stream, "  /%s Do\n", img.res.Name)
		fmt.Fprintf(&stream, "Q\n")
	}

	for _, t := range marks.texts {
		if err := context.ensureFont(); err != nil {
			return err
		}
		y := pageH - t.Y - t.FontSize
		c := context.opts.TextColor
		stream.WriteString("q\nBT\n")
		fmt.Fprintf(&stream, "  /%s %.2f Tf\n", fontResource, t.FontSize)
		fmt.Fprintf(&stream, "  %.2f %.2f %.2f rg\n", float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0)
		fmt.Fprintf(&stream, "  %.2f %.2f Td\n", t.X, y)
		fmt.Fprintf(&stream, "  %s Tj\n", pdfutil.PDFString(strings.TrimSpace(t.Content)))
		stream.WriteString("ET\nQ\n")
	}

	for _, h := range marks.highlights {
		if err := context.ensureHighlightGS(); err != nil {
			return err
		}
		y := pageH - h.Y - h.Height
		c := context.opts.HighlightColor
		stream.WriteString("q\n")
		fmt.Fprintf(&stream, "  /%s gs\n", gsResource)
		fmt.Fprintf(&stream, "  %.2f %.2f %.2f rg\n", float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0)
		fmt.Fprintf(&stream, "  %.2f %.2f %.2f %.2f re f\n", h.X, y, h.Width, h.Height)
		stream.WriteString("Q\n")
	}

	contentID, err := context.addStream(stream.Bytes())
	if err != nil {
		return fmt.Errorf("content stream: %w", err)
	}

	dict := context.rewrittenPageDict(page, contentID, marks, imageNames)
	if err := context.updateObject(pageID, []byte(dict)); err != nil {
		return fmt.Errorf("page dictionary: %w", err)
	}
	return nil
}

// addStream writes a stream object, compressed per the configured
// level.
func (context *BakeContext) addStream(data []byte) (uint32, error) {
	filter := ""
	if context.opts.CompressLevel != zlib.NoCompression {
		var b bytes.Buffer
		zw, err := zlib.NewWriterLevel(&b, context.opts.CompressLevel)
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(data); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
		data = b.Bytes()
		filter = "/Filter /FlateDecode "
	}

	var obj bytes.Buffer
	fmt.Fprintf(&obj, "<< %s/Length %d >>\nstream\n", filter, len(data))
	obj.Write(data)
	obj.WriteString("\nendstream")
	return context.addObject(obj.Bytes())
}

// ensureFont registers the shared text font object once per export.
func (context *BakeContext) ensureFont() error {
	if context.fontID != 0 {
		return nil
	}
	id, err := context.addObject([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"))
	if err != nil {
		return fmt.Errorf("font object: %w", err)
	}
	context.fontID = id
	return nil
}

// ensureHighlightGS registers the shared transparency graphics state
// once per export.
func (context *BakeContext) ensureHighlightGS() error {
	if context.gsID != 0 {
		return nil
	}
	obj := fmt.Sprintf("<< /Type /ExtGState /ca %.2f /CA %.2f >>", highlightGSCa, highlightGSCa)
	id, err := context.addObject([]byte(obj))
	if err != nil {
		return fmt.Errorf("graphics state object: %w", err)
	}
	context.gsID = id
	return nil
}

// rewrittenPageDict re-serializes the page dictionary with the new
// content stream appended and the annotation resources merged in. All
// untouched keys are carried over as-is.
func (context *BakeContext) rewrittenPageDict(page pdflib.Value, contentID uint32, marks *pageMarks, imageNames []string) string {
	var b strings.Builder
	b.WriteString("<<\n")

	for _, key := range page.Keys() {
		if key == "Contents" || key == "Resources" {
			continue
		}
		fmt.Fprintf(&b, "  /%s %s\n", key, pdfutil.SerializeValue(page.Key(key)))
	}

	refs := pdfutil.ContentRefs(page)
	refs = append(refs, fmt.Sprintf("%d 0 R", contentID))
	fmt.Fprintf(&b, "  /Contents [ %s ]\n", strings.Join(refs, " "))

	fmt.Fprintf(&b, "  /Resources %s\n", context.mergedResources(page.Key("Resources"), marks, imageNames))

	b.WriteString(">>")
	return b.String()
}

// mergedResources inlines the page's resolved resource dictionary and
// folds the export's font, graphics state and image entries into the
// matching categories.
func (context *BakeContext) mergedResources(res pdflib.Value, marks *pageMarks, imageNames []string) string {
	adds := map[string][]string{}
	if len(marks.texts) > 0 {
		adds["Font"] = append(adds["Font"], fmt.Sprintf("/%s %d 0 R", fontResource, context.fontID))
	}
	if len(marks.highlights) > 0 {
		adds["ExtGState"] = append(adds["ExtGState"], fmt.Sprintf("/%s %d 0 R", gsResource, context.gsID))
	}
	for _, name := range imageNames {
		adds["XObject"] = append(adds["XObject"], fmt.Sprintf("/%s %d 0 R", name, context.embeddedByName(name).objectID))
	}

	var b strings.Builder
	b.WriteString("<< ")

	if !res.IsNull() && res.Kind() == pdflib.Dict {
		for _, key := range res.Keys() {
			entries, ours := adds[key]
			if !ours {
				fmt.Fprintf(&b, "/%s %s ", key, pdfutil.SerializeValue(res.Key(key)))
				continue
			}
			// Merge our entries into the existing category dict.
			sub := res.Key(key)
			fmt.Fprintf(&b, "/%s << ", key)
			if sub.Kind() == pdflib.Dict {
				for _, name := range sub.Keys() {
					fmt.Fprintf(&b, "/%s %s ", name, pdfutil.SerializeValue(sub.Key(name)))
				}
			}
			for _, e := range entries {
				b.WriteString(e + " ")
			}
			b.WriteString(">> ")
			delete(adds, key)
		}
	}

	for _, key := range []string{"Font", "ExtGState", "XObject"} {
		entries, ok := adds[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "/%s << %s >> ", key, strings.Join(entries, " "))
	}

	b.WriteString(">>")
	return b.String()
}

func (context *BakeContext) embeddedByName(name string) embeddedImage {
	for _, img := range context.embedded {
		if img.res.Name == name {
			return img
		}
	}
	return embeddedImage{}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
