package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"
	"math"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	ExportJpegQuality   = 92
	ExportFileExtension = ".jpg"

	ThumbnailJpegQuality   = 90
	ThumbnailFileExtension = ".jpg"
)

// Processor turns library assets into upload-ready files. It relies on a
// Store for everything it keeps under the media storage root.
type Processor struct {
	store            Store
	thumbnailMaxSize int
}

func NewProcessor(store Store, thumbnailMaxSize int) *Processor {
	return &Processor{store: store, thumbnailMaxSize: thumbnailMaxSize}
}

func failed(code ErrorCode, err error) ExportResult {
	return ExportResult{Err: &ExportError{Code: code, Err: err}}
}

// Export runs one export request to completion. Nothing is written when the
// asset cannot be opened, and Success is only set once the output file is in
// place.
func (p *Processor) Export(req ExportRequest) ExportResult {
	if req.Asset == nil {
		return failed(CodeMissingAsset, ErrMissingAsset)
	}
	id := req.Asset.Identifier()

	rc, err := req.Asset.Open()
	if err != nil {
		if !isMissing(err) {
			log.Printf("processor: Failed to open asset %s: %v", id, err)
		}
		return failed(CodeMissingAsset, fmt.Errorf("%w '%s': %w", ErrMissingAsset, id, err))
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return failed(CodeDecodeFailed, fmt.Errorf("failed to read asset '%s': %w", id, err))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return failed(CodeDecodeFailed, fmt.Errorf("failed to decode asset '%s': %w", id, err))
	}

	meta := ReadMetadata(data)
	if req.StripGeoLocation {
		meta.ClearLocation()
	}

	thumb, err := p.thumbnail(img)
	if err != nil {
		return failed(CodeEncodeFailed, err)
	}

	out := fitTo(img, req.TargetSize)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(ExportJpegQuality)); err != nil {
		return failed(CodeEncodeFailed, fmt.Errorf("export encoding failed for '%s': %w", id, err))
	}
	encoded := buf.Bytes()

	if seg := exifSegment(data); seg != nil {
		encoded = attachExif(id, encoded, seg, req.StripGeoLocation)
	}

	dest, err := p.writeExport(req.DestPath, encoded)
	if err != nil {
		log.Printf("processor: Failed to write export of %s: %v", id, err)
		return failed(CodeWriteFailed, err)
	}

	log.Printf("processor: Exported %s to %s (%dx%d)", id, dest, out.Bounds().Dx(), out.Bounds().Dy())
	return ExportResult{
		Success:      true,
		Path:         dest,
		Size:         out.Bounds().Size(),
		Thumbnail:    thumb,
		Metadata:     meta,
		BytesWritten: int64(len(encoded)),
	}
}

// attachExif carries the source EXIF over to the encoded output. If the block
// cannot be sanitized it is dropped rather than copied verbatim.
func attachExif(id string, encoded, seg []byte, stripGPS bool) []byte {
	clean, err := sanitizeExif(seg, stripGPS)
	if err != nil {
		log.Printf("processor: Dropping EXIF of %s: %v", id, err)
		return encoded
	}
	withExif, err := withExifSegment(encoded, clean)
	if err != nil {
		log.Printf("processor: Dropping EXIF of %s: %v", id, err)
		return encoded
	}
	return withExif
}

// fitTo scales img down to fit target. Zero components are unbounded and
// images are never enlarged.
func fitTo(img image.Image, target image.Point) image.Image {
	if target.X <= 0 && target.Y <= 0 {
		return img
	}
	maxW, maxH := target.X, target.Y
	if maxW <= 0 {
		maxW = math.MaxInt32
	}
	if maxH <= 0 {
		maxH = math.MaxInt32
	}
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// thumbnail encodes a JPEG whose longest side is at most thumbnailMaxSize.
func (p *Processor) thumbnail(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("invalid original image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	thumb := fitTo(img, image.Pt(p.thumbnailMaxSize, p.thumbnailMaxSize))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality)); err != nil {
		return nil, fmt.Errorf("thumbnail encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// writeExport places encoded at dest, or under the export directory with a
// generated name when dest is empty, and returns the absolute path written.
func (p *Processor) writeExport(dest string, encoded []byte) (string, error) {
	if dest != "" {
		return dest, writeAtomic(dest, bytes.NewReader(encoded))
	}
	rel, err := p.save(AssetTypeExport, ExportFileExtension, bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	return p.store.GetFullPath(rel)
}

// StoreThumbnail saves thumbnail bytes under a generated name and returns the
// relative path.
func (p *Processor) StoreThumbnail(data []byte) (string, error) {
	return p.save(AssetTypeThumbnail, ThumbnailFileExtension, bytes.NewReader(data))
}

// StoreDownload saves a downloaded file under a generated name with the given
// extension and returns the relative path.
func (p *Processor) StoreDownload(data []byte, ext string) (string, error) {
	return p.save(AssetTypeDownload, ext, bytes.NewReader(data))
}

// DeleteStored removes a file saved by one of the Store* methods.
func (p *Processor) DeleteStored(relativePath string) error {
	return p.store.Delete(relativePath)
}

func (p *Processor) save(assetType AssetType, ext string, data io.Reader) (string, error) {
	assetUUID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID for %s: %w", assetType, err)
	}
	savedRelPath, err := p.store.Save(assetType, "", assetUUID.String()+ext, data)
	if err != nil {
		return "", fmt.Errorf("failed to save %s via store: %w", assetType, err)
	}
	return savedRelPath, nil
}

// FullPath resolves a path returned by the Store to an absolute one.
func (p *Processor) FullPath(relativePath string) (string, error) {
	return p.store.GetFullPath(relativePath)
}

// RelativePath maps an absolute path inside the media storage root back to
// the form the Store uses.
func (p *Processor) RelativePath(fullPath string) (string, error) {
	return p.store.RelativePath(fullPath)
}
