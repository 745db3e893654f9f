package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const assetCacheDuration = 24 * time.Hour

// AssetFiles opens stored assets by relative path. *media.LocalStorage
// satisfies it.
type AssetFiles interface {
	Get(relativePath string) (io.ReadCloser, os.FileInfo, error)
}

// AssetServer serves files stored under subDir. It must be mounted on a
// wildcard route; the wildcard is the path inside subDir:
//
//	r.Get("/exports/*", AssetServer(store, "exports"))
func AssetServer(files AssetFiles, subDir string) http.HandlerFunc {
	log.Printf("Serving assets for '/%s/*' from the media store", subDir)

	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := chi.URLParam(r, "*")
		if relativePath == "" || strings.Contains(relativePath, "..") {
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid asset path")
			return
		}

		rc, info, err := files.Get(path.Join(subDir, relativePath))
		if errors.Is(err, os.ErrNotExist) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Asset not found")
			return
		} else if err != nil {
			log.Printf("Error opening asset %s/%s: %v", subDir, relativePath, err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
			return
		}
		defer rc.Close()

		seeker, ok := rc.(io.ReadSeeker)
		if info.IsDir() || !ok {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Asset not found")
			return
		}

		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(assetCacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(assetCacheDuration).Format(http.TimeFormat))
		http.ServeContent(w, r, info.Name(), info.ModTime(), seeker)
	}
}
