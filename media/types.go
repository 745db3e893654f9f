package media

import "image"

type AssetType string

const (
	AssetTypeThumbnail AssetType = "thumbnail"
	AssetTypeExport    AssetType = "export"
	AssetTypeDownload  AssetType = "download"
)

// ExportRequest describes one asset export. A zero TargetSize (or a
// TargetSize larger than the source) keeps the source dimensions; a zero
// component leaves that side unbounded.
type ExportRequest struct {
	Asset            Asset
	TargetSize       image.Point
	StripGeoLocation bool
	DestPath         string
}

// ExportResult is delivered once per export request.
type ExportResult struct {
	Success      bool        `json:"success"`
	Path         string      `json:"-"`
	Size         image.Point `json:"size"`
	Thumbnail    []byte      `json:"-"`
	Metadata     *Metadata   `json:"metadata,omitempty"`
	BytesWritten int64       `json:"bytes_written"`
	Err          error       `json:"-"`
}

// Metadata struct
// Contains EXIF and dimension information of the source asset
type Metadata struct {
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty"`
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"`
	LensMake     *string  `json:"lens_make,omitempty"`
	LensModel    *string  `json:"lens_model,omitempty"`
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// ClearLocation drops the GPS fields.
func (m *Metadata) ClearLocation() {
	if m == nil {
		return
	}
	m.Latitude = nil
	m.Longitude = nil
}
