// media/types.go
package media

import (
	"context"
	"io"
)

type AssetType string

const (
	AssetTypeOriginal  AssetType = "original"
	AssetTypeThumbnail AssetType = "thumbnail"
)

// Store persists uploaded koma images. the returned reference is what ends up
// in koma.image_filename: a bare filename for local storage, a URL otherwise.
type Store interface {
	Save(ctx context.Context, comicID uint, filename string, data io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}
