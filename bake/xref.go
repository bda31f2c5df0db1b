package bake

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
)

// writeXref writes the incremental cross-reference section, matching
// the form the source document uses.
func (context *BakeContext) writeXref() error {
	sort.Slice(context.updatedXrefEntries, func(i, j int) bool {
		return context.updatedXrefEntries[i].ID < context.updatedXrefEntries[j].ID
	})

	context.NewXrefStart = int64(context.OutputBuffer.Buff.Len())

	switch context.PDFReader.XrefInformation.Type {
	case "table":
		return context.writeIncrXrefTable()
	case "stream":
		return context.writeXrefStream()
	default:
		return fmt.Errorf("unknown xref type: %s", context.PDFReader.XrefInformation.Type)
	}
}

// writeIncrXrefTable writes the incremental cross-reference table to the output buffer.
func (context *BakeContext) writeIncrXrefTable() error {
	if _, err := context.OutputBuffer.Write([]byte("xref\n")); err != nil {
		return fmt.Errorf("failed to write incremental xref header: %w", err)
	}

	// Write updated entries
	for _, entry := range context.updatedXrefEntries {
		pageXrefObj := fmt.Sprintf("%d %d\n", entry.ID, 1)
		if _, err := context.OutputBuffer.Write([]byte(pageXrefObj)); err != nil {
			return fmt.Errorf("failed to write updated xref object: %w", err)
		}

		xrefLine := fmt.Sprintf("%010d 00000 n\r\n", entry.Offset)
		if _, err := context.OutputBuffer.Write([]byte(xrefLine)); err != nil {
			return fmt.Errorf("failed to write updated incremental xref entry: %w", err)
		}
	}

	// Write xref subsection header
	startXrefObj := fmt.Sprintf("%d %d\n", context.lastXrefID+1, len(context.newXrefEntries))
	if _, err := context.OutputBuffer.Write([]byte(startXrefObj)); err != nil {
		return fmt.Errorf("failed to write starting xref object: %w", err)
	}

	// Write new entries
	for _, entry := range context.newXrefEntries {
		xrefLine := fmt.Sprintf("%010d 00000 n\r\n", entry.Offset)
		if _, err := context.OutputBuffer.Write([]byte(xrefLine)); err != nil {
			return fmt.Errorf("failed to write incremental xref entry: %w", err)
		}
	}

	return nil
}

// writeXrefStream writes the cross-reference stream to the output buffer.
func (context *BakeContext) writeXrefStream() error {
	var entries bytes.Buffer

	for _, entry := range context.updatedXrefEntries {
		writeXrefStreamLine(&entries, 1, int(entry.Offset), 0)
	}
	for _, entry := range context.newXrefEntries {
		writeXrefStreamLine(&entries, 1, int(entry.Offset), 0)
	}
	// The stream object indexes itself; its offset is where startxref
	// will point.
	writeXrefStreamLine(&entries, 1, int(context.NewXrefStart), 0)

	streamBytes, err := encodeXrefStream(entries.Bytes())
	if err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	var obj bytes.Buffer
	if err := context.writeXrefStreamHeader(&obj, len(streamBytes)); err != nil {
		return fmt.Errorf("failed to write xref stream header: %w", err)
	}
	obj.WriteString("stream\n")
	obj.Write(streamBytes)
	obj.WriteString("\nendstream")

	// The stream object carries its own xref entry, at the position
	// startxref will point to.
	if _, err := context.addObject(obj.Bytes()); err != nil {
		return fmt.Errorf("failed to add xref stream object: %w", err)
	}
	return nil
}

// encodeXrefStream applies FlateDecode without prediction.
func encodeXrefStream(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (context *BakeContext) writeXrefStreamHeader(buffer *bytes.Buffer, streamLength int) error {
	trailer := context.PDFReader.Trailer()
	id := trailer.Key("ID")

	// The stream object itself is about to join newXrefEntries.
	newCount := len(context.newXrefEntries) + 1
	totalEntries := uint32(context.PDFReader.XrefInformation.ItemCount) + uint32(newCount)

	var indexArray []uint32
	for _, entry := range context.updatedXrefEntries {
		indexArray = append(indexArray, entry.ID, 1)
	}
	indexArray = append(indexArray, context.lastXrefID+1, uint32(newCount))

	buffer.WriteString("<< /Type /XRef\n")
	fmt.Fprintf(buffer, "  /Length %d\n", streamLength)
	buffer.WriteString("  /Filter /FlateDecode\n")
	buffer.WriteString("  /W [ 1 4 1 ]\n")
	fmt.Fprintf(buffer, "  /Prev %d\n", context.PDFReader.XrefInformation.StartPos)
	fmt.Fprintf(buffer, "  /Size %d\n", totalEntries)

	buffer.WriteString("  /Index [")
	for _, idx := range indexArray {
		fmt.Fprintf(buffer, " %d", idx)
	}
	buffer.WriteString(" ]\n")

	rootPtr := trailer.Key("Root").GetPtr()
	fmt.Fprintf(buffer, "  /Root %d %d R\n", rootPtr.GetID(), rootPtr.GetGen())

	if infoPtr := trailer.Key("Info").GetPtr(); infoPtr.GetID() != 0 {
		fmt.Fprintf(buffer, "  /Info %d %d R\n", infoPtr.GetID(), infoPtr.GetGen())
	}

	if !id.IsNull() {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(buffer, "  /ID [<%s><%s>]\n", id0, id1)
	}

	buffer.WriteString(">>\n")
	return nil
}

// writeXrefStreamLine writes a single [type offset gen] row.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int, gen byte) {
	b.WriteByte(xreftype)

	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	b.WriteByte(gen)
}
