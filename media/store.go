package media

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownAssetType is returned for asset types the store has no directory for.
var ErrUnknownAssetType = errors.New("unknown asset type")

// DefaultSubDirs places every asset type the service produces.
var DefaultSubDirs = map[AssetType]string{
	AssetTypeThumbnail: "thumbnails",
	AssetTypeExport:    "exports",
	AssetTypeDownload:  "downloads",
}

// Store keeps generated files (thumbnails, exports, downloaded images) under
// one root. Paths handed out are slash-separated and relative to that root.
type Store interface {
	// Save writes data under the asset type's directory and returns the
	// relative path used. An empty filenameHint gets a UUID name.
	Save(assetType AssetType, relativeDirHint string, filenameHint string, data io.Reader) (string, error)
	Get(relativePath string) (io.ReadCloser, os.FileInfo, error)
	Delete(relativePath string) error
	GetFullPath(relativePath string) (string, error)
	// RelativePath is the inverse of GetFullPath.
	RelativePath(fullPath string) (string, error)
	// EnsureDir creates the asset type's directory and returns it.
	EnsureDir(assetType AssetType) (string, error)
}

// LocalStorage implements Store on the local filesystem. The directory map
// is fixed at construction.
type LocalStorage struct {
	basePath string
	dirs     map[AssetType]string
}

// NewLocalStorage roots a store at basePath. subDirs overrides entries of
// DefaultSubDirs; every directory must stay inside basePath.
func NewLocalStorage(basePath string, subDirs map[AssetType]string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}
	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	merged := make(map[AssetType]string, len(DefaultSubDirs))
	for assetType, subDir := range DefaultSubDirs {
		merged[assetType] = subDir
	}
	for assetType, subDir := range subDirs {
		merged[assetType] = subDir
	}

	dirs := make(map[AssetType]string, len(merged))
	for assetType, subDir := range merged {
		fullPath := filepath.Join(absBasePath, subDir)
		if fullPath == absBasePath || !within(absBasePath, fullPath) {
			return nil, fmt.Errorf("invalid subdirectory '%s' for %s: must be inside '%s'", subDir, assetType, absBasePath)
		}
		dirs[assetType] = fullPath
	}

	log.Printf("media.store: using %s", absBasePath)
	return &LocalStorage{basePath: absBasePath, dirs: dirs}, nil
}

func within(base, path string) bool {
	clean := filepath.Clean(path)
	return clean == base || strings.HasPrefix(clean, base+string(filepath.Separator))
}

func (ls *LocalStorage) EnsureDir(assetType AssetType) (string, error) {
	dirPath, ok := ls.dirs[assetType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAssetType, assetType)
	}
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
	}
	return dirPath, nil
}

// Save writes through a temp file so readers never see a partial asset.
// relativeDirHint adds structure inside the asset type's directory.
func (ls *LocalStorage) Save(assetType AssetType, relativeDirHint string, filenameHint string, data io.Reader) (string, error) {
	targetDir, err := ls.EnsureDir(assetType)
	if err != nil {
		return "", err
	}
	if relativeDirHint != "" {
		hinted := filepath.Join(targetDir, relativeDirHint)
		if !within(targetDir, hinted) {
			return "", fmt.Errorf("invalid relative directory hint '%s'", relativeDirHint)
		}
		targetDir = hinted
	}

	filename := filepath.Base(filenameHint)
	if filenameHint == "" {
		generated, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("failed to generate filename: %w", err)
		}
		filename = generated.String()
	}

	fullPath := filepath.Join(targetDir, filename)
	if err := writeAtomic(fullPath, data); err != nil {
		return "", err
	}
	return ls.RelativePath(fullPath)
}

func (ls *LocalStorage) Get(relativePath string) (io.ReadCloser, os.FileInfo, error) {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open asset '%s': %w", relativePath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat asset '%s': %w", relativePath, err)
	}
	return file, info, nil
}

// Delete removes an asset file. Missing files are not an error.
func (ls *LocalStorage) Delete(relativePath string) error {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	return nil
}

// GetFullPath resolves a relative asset path. Leading ".." segments are
// clamped at the storage root.
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	fullPath := filepath.Join(ls.basePath, filepath.Clean("/"+filepath.FromSlash(relativePath)))
	if !within(ls.basePath, fullPath) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}
	return fullPath, nil
}

func (ls *LocalStorage) RelativePath(fullPath string) (string, error) {
	if !within(ls.basePath, fullPath) {
		return "", fmt.Errorf("path '%s' is outside the storage root", fullPath)
	}
	relativePath, err := filepath.Rel(ls.basePath, fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path for '%s': %w", fullPath, err)
	}
	return filepath.ToSlash(relativePath), nil
}

// writeAtomic copies data into a temp file next to dest and renames it into
// place, creating dest's directory first.
func writeAtomic(dest string, data io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in '%s': %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write '%s': %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close '%s': %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into '%s': %w", dest, err)
	}
	return nil
}
