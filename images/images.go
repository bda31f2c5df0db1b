// Package images provides raster image resources for PDF embedding.
//
// Signature stamps arrive as encoded buffers (PNG from the signature
// pad, or anything the registered decoders understand). Identical
// payloads placed multiple times hash to the same resource so the
// export embeds each image only once.
package images

import (
	"crypto/sha256"
	"encoding/hex"
)

// Image is an image resource destined for a PDF XObject.
type Image struct {
	Name string // Identifier for the image
	Data []byte // Raw encoded image data
	Hash string // SHA256 hash of image data for deduplication
}

// FromPayload wraps raw encoded image bytes, computing the dedup hash.
func FromPayload(data []byte) Image {
	sum := sha256.Sum256(data)
	return Image{
		Data: data,
		Hash: hex.EncodeToString(sum[:]),
	}
}
