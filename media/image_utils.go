package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var allowedUploadExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
}

// AllowedExtension checks the upload filename against the png/jpg/jpeg
// whitelist, case-insensitively. returns the lowercase extension without dot.
func AllowedExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return "", false
	}
	return strings.TrimPrefix(ext, "."), true
}

// DecodeUpload verifies the payload is a decodable image, applying EXIF orientation
func DecodeUpload(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode uploaded image: %w", err)
	}
	return img, nil
}
