package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStorage implements the Store interface using the local filesystem.
// originals live flat in basePath, generated thumbnails in a subdirectory.
type LocalStorage struct {
	basePath        string               // absolute path to UPLOAD_DIR
	resolvedPathMap map[AssetType]string // maps AssetType to full absolute path
	log             zerolog.Logger
}

// NewLocalStorage creates a new local filesystem store
func NewLocalStorage(basePath, thumbnailsSubDir string, log zerolog.Logger) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	thumbPath := filepath.Join(absBasePath, thumbnailsSubDir)
	if !isWithin(thumbPath, absBasePath) || thumbPath == absBasePath {
		return nil, fmt.Errorf("invalid subdirectory configuration: '%s' resolves outside base path '%s'", thumbnailsSubDir, absBasePath)
	}

	log.Info().Str("path", absBasePath).Msg("media.store: initialized LocalStorage")
	return &LocalStorage{
		basePath: absBasePath,
		resolvedPathMap: map[AssetType]string{
			AssetTypeOriginal:  absBasePath,
			AssetTypeThumbnail: thumbPath,
		},
		log: log,
	}, nil
}

// BasePath is the absolute upload directory
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// EnsureDir creates the directory for the asset type if it doesn't exist
func (ls *LocalStorage) EnsureDir(assetType AssetType) (string, error) {
	dirPath, ok := ls.resolvedPathMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
	}
	return dirPath, nil
}

// Save writes an original upload. comicID is not part of the local layout:
// the maintenance tool resolves images as <uploads>/<image_filename>.
func (ls *LocalStorage) Save(_ context.Context, _ uint, filename string, data io.Reader) (string, error) {
	return ls.SaveAsset(AssetTypeOriginal, filename, data)
}

// SaveAsset writes data under the directory of assetType and returns the path
// relative to the upload directory
func (ls *LocalStorage) SaveAsset(assetType AssetType, filename string, data io.Reader) (string, error) {
	targetDir, err := ls.EnsureDir(assetType)
	if err != nil {
		return "", err
	}

	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid filename '%s' for LocalStorage.Save", filename)
	}

	fullSavePath := filepath.Join(targetDir, filename)

	// O_EXCL so a colliding name never overwrites an existing panel
	outFile, err := os.OpenFile(fullSavePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}
	defer outFile.Close()

	if _, err = io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}

	relativePath, err := filepath.Rel(ls.basePath, fullSavePath)
	if err != nil {
		return "", fmt.Errorf("internal error calculating relative path: %w", err)
	}

	ls.log.Debug().Str("path", fullSavePath).Msg("media.store: saved asset")
	return filepath.ToSlash(relativePath), nil
}

// Delete removes an asset file. a file that is already gone is not an error.
func (ls *LocalStorage) Delete(_ context.Context, relativePath string) error {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	if err == nil {
		ls.log.Debug().Str("path", fullPath).Msg("media.store: deleted asset")
	}
	return nil
}

// GetFullPath calculates the absolute path and performs security check
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	cleanRelativePath := filepath.Clean(filepath.FromSlash(relativePath))
	absFullPath := filepath.Join(ls.basePath, cleanRelativePath)

	if !isWithin(absFullPath, ls.basePath) || absFullPath == ls.basePath {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}
	return absFullPath, nil
}

// isWithin reports whether path is base or below it
func isWithin(path, base string) bool {
	rel, err := filepath.Rel(base, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
