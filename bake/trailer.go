package bake

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// writeTrailer finishes the incremental update. Table-style documents
// get a fresh trailer dictionary chained to the previous one via Prev;
// stream-style documents already carry the trailer fields inside the
// xref stream and only need the startxref pointer.
func (context *BakeContext) writeTrailer() error {
	if context.PDFReader.XrefInformation.Type == "table" {
		trailer := context.PDFReader.Trailer()

		size := context.PDFReader.XrefInformation.ItemCount + int64(len(context.newXrefEntries))
		rootPtr := trailer.Key("Root").GetPtr()

		trailerString := "trailer\n<<\n"
		trailerString += "  /Size " + strconv.FormatInt(size, 10) + "\n"
		trailerString += fmt.Sprintf("  /Root %d %d R\n", rootPtr.GetID(), rootPtr.GetGen())
		if infoPtr := trailer.Key("Info").GetPtr(); infoPtr.GetID() != 0 {
			trailerString += fmt.Sprintf("  /Info %d %d R\n", infoPtr.GetID(), infoPtr.GetGen())
		}
		trailerString += "  /Prev " + strconv.FormatInt(context.PDFReader.XrefInformation.StartPos, 10) + "\n"
		if id := trailer.Key("ID"); !id.IsNull() {
			id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
			id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
			trailerString += fmt.Sprintf("  /ID [<%s><%s>]\n", id0, id1)
		}
		trailerString += ">>\n"

		if _, err := context.OutputBuffer.Write([]byte(trailerString)); err != nil {
			return err
		}
	}

	if _, err := context.OutputBuffer.Write([]byte("startxref\n")); err != nil {
		return err
	}
	if _, err := context.OutputBuffer.Write([]byte(strconv.FormatInt(context.NewXrefStart, 10) + "\n")); err != nil {
		return err
	}
	if _, err := context.OutputBuffer.Write([]byte("%%EOF\n")); err != nil {
		return err
	}
	return nil
}
