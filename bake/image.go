package bake

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ragersky/pdfsigner/images"
)

// embeddedImage is an image resource that has been written out as an
// XObject.
type embeddedImage struct {
	res      images.Image
	objectID uint32
}

// embedImage registers an encoded image as an image XObject, reusing
// the object when the same payload was embedded before. Opaque JPEG
// data passes through as DCTDecode; everything else is re-encoded as a
// flate RGB stream with a grayscale soft mask for the alpha channel.
func (context *BakeContext) embedImage(data []byte) (embeddedImage, error) {
	if len(data) == 0 {
		return embeddedImage{}, fmt.Errorf("invalid image data")
	}

	res := images.FromPayload(data)
	if img, ok := context.embedded[res.Hash]; ok {
		return img, nil
	}

	srcImg, format, err := image.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return embeddedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := srcImg.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var rgbBuf, alphaBuf bytes.Buffer
	compressLevel := context.opts.CompressLevel
	useCompression := compressLevel != zlib.NoCompression

	var rgbWriter, alphaWriter io.Writer = &rgbBuf, &alphaBuf
	var zlibRgb, zlibAlpha *zlib.Writer
	if useCompression {
		zlibRgb, _ = zlib.NewWriterLevel(&rgbBuf, compressLevel)
		zlibAlpha, _ = zlib.NewWriterLevel(&alphaBuf, compressLevel)
		rgbWriter, alphaWriter = zlibRgb, zlibAlpha
	}

	hasAlpha := false
	pixel := make([]byte, 3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := srcImg.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			if _, err := alphaWriter.Write([]byte{a8}); err != nil {
				return embeddedImage{}, err
			}
			pixel[0], pixel[1], pixel[2] = uint8(r>>8), uint8(g>>8), uint8(b>>8)
			if _, err := rgbWriter.Write(pixel); err != nil {
				return embeddedImage{}, err
			}
		}
	}

	if useCompression {
		if err := zlibRgb.Close(); err != nil {
			return embeddedImage{}, err
		}
		if err := zlibAlpha.Close(); err != nil {
			return embeddedImage{}, err
		}
	}

	filter := ""
	if useCompression {
		filter = "/Filter /FlateDecode"
	}

	var smaskID uint32
	if hasAlpha {
		smaskDict := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 %s /Length %d >>\nstream\n",
			width, height, filter, alphaBuf.Len())
		smaskData := append([]byte(smaskDict), alphaBuf.Bytes()...)
		smaskData = append(smaskData, []byte("\nendstream")...)
		smaskID, err = context.addObject(smaskData)
		if err != nil {
			return embeddedImage{}, err
		}
	}

	var objBuf bytes.Buffer
	objBuf.WriteString("<< /Type /XObject /Subtype /Image\n")
	fmt.Fprintf(&objBuf, "  /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8\n", width, height)
	if smaskID != 0 {
		fmt.Fprintf(&objBuf, "  /SMask %d 0 R\n", smaskID)
	}
	if format == "jpeg" && !hasAlpha {
		fmt.Fprintf(&objBuf, "  /Filter /DCTDecode /Length %d >>\nstream\n", len(res.Data))
		objBuf.Write(res.Data)
	} else {
		fmt.Fprintf(&objBuf, "  %s /Length %d >>\nstream\n", filter, rgbBuf.Len())
		objBuf.Write(rgbBuf.Bytes())
	}
	objBuf.WriteString("\nendstream")

	objectID, err := context.addObject(objBuf.Bytes())
	if err != nil {
		return embeddedImage{}, err
	}

	res.Name = fmt.Sprintf("%s%d", imagePrefix, len(context.embedded)+1)
	img := embeddedImage{res: res, objectID: objectID}
	context.embedded[res.Hash] = img
	return img, nil
}
