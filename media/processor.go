package media

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ThumbnailJpegQuality   = 85
	ThumbnailFileExtension = ".jpg"
)

// Processor generates thumbnails for locally stored komas. it relies on
// LocalStorage for saving the results.
type Processor struct {
	store   *LocalStorage
	maxSize int
	log     zerolog.Logger
}

func NewProcessor(store *LocalStorage, maxSize int, log zerolog.Logger) *Processor {
	return &Processor{store: store, maxSize: maxSize, log: log}
}

// GenerateThumbnail fits the image into maxSize x maxSize, keeping the aspect
// ratio, and never upscales. returns the thumbnail path relative to the upload dir.
func (p *Processor) GenerateThumbnail(originalImg image.Image, originalRef string) (string, error) {
	bounds := originalImg.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	thumb := originalImg
	if bounds.Dx() > p.maxSize || bounds.Dy() > p.maxSize {
		thumb = imaging.Fit(originalImg, p.maxSize, p.maxSize, imaging.Lanczos)
	}

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		if err != nil {
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	thumbUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to generate UUID for thumbnail: %w", err)
	}

	savedRelPath, err := p.store.SaveAsset(AssetTypeThumbnail, thumbUUID.String()+ThumbnailFileExtension, reader)
	// unblock the encoder if Save bailed out before draining the pipe
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail via store: %w", err)
	}

	p.log.Debug().Str("source", originalRef).Str("thumbnail", savedRelPath).Msg("processor: generated thumbnail")
	return savedRelPath, nil
}
