package common

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

// DownscaleImage shrinks a jpeg or png image so that its longest side is at
// most maxSide pixels. Other formats and images already small enough are
// returned unchanged with changed=false.
func DownscaleImage(mime string, data []byte, maxSide int) (result []byte, changed bool, err error) {
	if mime != "image/jpeg" && mime != "image/png" {
		return data, false, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}

	if cfg.Width <= maxSide && cfg.Height <= maxSide {
		return data, false, nil
	}

	img, err := decodeImg(mime, bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}

	var w, h uint
	if cfg.Width >= cfg.Height {
		w = uint(maxSide)
	} else {
		h = uint(maxSide)
	}

	b, err := encodeImg(mime, resize.Resize(w, h, img, resize.Lanczos2))
	if err != nil {
		return nil, false, err
	}

	return b, true, nil
}

func decodeImg(mime string, data io.Reader) (img image.Image, err error) {
	switch mime {
	case "image/jpeg":
		img, err = jpeg.Decode(data)
	case "image/png":
		img, err = png.Decode(data)
	default:
		return nil, fmt.Errorf("unsupported image type %s", mime)
	}
	return img, err
}

func encodeImg(mime string, img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)

	var err error
	switch mime {
	case "image/jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	case "image/png":
		err = png.Encode(buf, img)
	default:
		return nil, fmt.Errorf("unsupported image type %s", mime)
	}
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
