package handlers

import (
	"context"
	"errors"
	"image"
	"log"
	"net/http"
	"strings"

	"github.com/camden-git/pressdesk/media"
	"github.com/camden-git/pressdesk/workers"
)

// ExportQueue runs exports. *workers.AssetExporter satisfies it.
type ExportQueue interface {
	ExportAndWait(ctx context.Context, req media.ExportRequest) media.ExportResult
}

// ExportAssets maps export output into the media store. *media.Processor
// satisfies it.
type ExportAssets interface {
	RelativePath(fullPath string) (string, error)
	StoreThumbnail(data []byte) (string, error)
}

type ExportHandler struct {
	LibraryRoot string
	Queue       ExportQueue
	Assets      ExportAssets
}

type exportRequest struct {
	Path             string `json:"path"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	StripGeolocation bool   `json:"strip_geolocation"`
}

type exportResponse struct {
	Success      bool            `json:"success"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	BytesWritten int64           `json:"bytes_written"`
	Metadata     *media.Metadata `json:"metadata,omitempty"`
}

func exportErrorStatus(err error) (int, string) {
	switch code := media.CodeOf(err); code {
	case media.CodeMissingAsset:
		return http.StatusNotFound, string(code)
	case media.CodeDecodeFailed:
		return http.StatusUnprocessableEntity, string(code)
	case "":
		if errors.Is(err, workers.ErrExporterStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable, "unavailable"
		}
		return http.StatusInternalServerError, CodeInternal
	default:
		return http.StatusInternalServerError, string(code)
	}
}

func (eh *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Missing required field: path")
		return
	}
	if req.Width < 0 || req.Height < 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "width and height must not be negative")
		return
	}
	if !media.IsRasterImage(req.Path) {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Path is not a supported image")
		return
	}

	asset, err := media.NewFileAsset(eh.LibraryRoot, req.Path)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	result := eh.Queue.ExportAndWait(r.Context(), media.ExportRequest{
		Asset:            asset,
		TargetSize:       image.Pt(req.Width, req.Height),
		StripGeoLocation: req.StripGeolocation,
	})
	if !result.Success {
		status, code := exportErrorStatus(result.Err)
		detail := "Export failed"
		if result.Err != nil {
			detail = result.Err.Error()
		}
		WriteAPIError(w, status, code, detail)
		return
	}

	relPath, err := eh.Assets.RelativePath(result.Path)
	if err != nil {
		log.Printf("Error resolving export path %s: %v", result.Path, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Export written outside media storage")
		return
	}

	resp := exportResponse{
		Success:      true,
		Width:        result.Size.X,
		Height:       result.Size.Y,
		URL:          "/api/" + relPath,
		BytesWritten: result.BytesWritten,
		Metadata:     result.Metadata,
	}
	if len(result.Thumbnail) > 0 {
		thumbPath, err := eh.Assets.StoreThumbnail(result.Thumbnail)
		if err != nil {
			log.Printf("Error storing thumbnail for %s: %v", req.Path, err)
		} else {
			resp.ThumbnailURL = "/api/" + thumbPath
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}
