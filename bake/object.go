package bake

import (
	"fmt"
	"strconv"
)

type xrefEntry struct {
	ID     uint32
	Offset int64
}

// addObject appends a new numbered object to the output buffer and
// records its cross-reference entry. Object ids continue the document's
// existing sequence.
func (context *BakeContext) addObject(object []byte) (uint32, error) {
	objectID := context.lastXrefID + uint32(len(context.newXrefEntries)) + 1
	offset := int64(context.OutputBuffer.Buff.Len())

	if err := context.writeObject(objectID, object); err != nil {
		return 0, err
	}

	context.newXrefEntries = append(context.newXrefEntries, xrefEntry{ID: objectID, Offset: offset})
	return objectID, nil
}

// updateObject appends a replacement body for an existing object id.
// The new cross-reference section will point the id at this copy.
func (context *BakeContext) updateObject(objectID uint32, object []byte) error {
	offset := int64(context.OutputBuffer.Buff.Len())

	if err := context.writeObject(objectID, object); err != nil {
		return err
	}

	context.updatedXrefEntries = append(context.updatedXrefEntries, xrefEntry{ID: objectID, Offset: offset})
	return nil
}

func (context *BakeContext) writeObject(objectID uint32, object []byte) error {
	if _, err := context.OutputBuffer.Write([]byte(strconv.FormatUint(uint64(objectID), 10) + " 0 obj\n")); err != nil {
		return fmt.Errorf("failed to write object header: %w", err)
	}
	if _, err := context.OutputBuffer.Write(object); err != nil {
		return fmt.Errorf("failed to write object body: %w", err)
	}
	if _, err := context.OutputBuffer.Write([]byte("\nendobj\n")); err != nil {
		return fmt.Errorf("failed to write object footer: %w", err)
	}
	return nil
}
