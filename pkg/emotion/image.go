package emotion

import (
	"encoding/base64"
	"image"

	"github.com/teslashibe/go-emotive/pkg/frame"
)

// defaultJPEGQuality keeps uploads small; faces survive it fine.
const defaultJPEGQuality = 85

// EncodeImageBase64 returns region as a base64 JPEG. quality outside 1-100
// uses defaultJPEGQuality.
func EncodeImageBase64(region image.Image, quality int) (string, error) {
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	data, err := frame.EncodeJPEG(region, quality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
