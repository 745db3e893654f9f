package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exifWithGPS builds a little-endian EXIF block holding an orientation tag
// and a GPS IFD pointing at Paris.
func exifWithGPS(orientation uint16) []byte {
	le := binary.LittleEndian
	buf := make([]byte, 140)
	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	le.PutUint32(buf[4:], 8)

	entry := func(off int, tag, typ uint16, count, value uint32) {
		le.PutUint16(buf[off:], tag)
		le.PutUint16(buf[off+2:], typ)
		le.PutUint32(buf[off+4:], count)
		le.PutUint32(buf[off+8:], value)
	}
	rational := func(off int, num, den uint32) {
		le.PutUint32(buf[off:], num)
		le.PutUint32(buf[off+4:], den)
	}

	le.PutUint16(buf[8:], 2)
	entry(10, tagOrientation, 3, 1, uint32(orientation))
	entry(22, tagGPSPointer, 4, 1, 38)

	le.PutUint16(buf[38:], 4)
	entry(40, 0x0001, 2, 2, 'N')
	entry(52, 0x0002, 5, 3, 92)
	entry(64, 0x0003, 2, 2, 'E')
	entry(76, 0x0004, 5, 3, 116)

	rational(92, 48, 1)
	rational(100, 51, 1)
	rational(108, 2364, 100)
	rational(116, 2, 1)
	rational(124, 21, 1)
	rational(132, 756, 100)

	return append(append([]byte(nil), exifHeader...), buf...)
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func photoWithGPS(t *testing.T, w, h int, orientation uint16) []byte {
	t.Helper()
	data, err := withExifSegment(encodeJPEG(t, w, h), exifWithGPS(orientation))
	require.NoError(t, err)
	return data
}

func newTestProcessor(t *testing.T) (*Processor, *LocalStorage) {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir(), map[AssetType]string{
		AssetTypeThumbnail: "thumbnails",
		AssetTypeExport:    "exports",
		AssetTypeDownload:  "downloads",
	})
	require.NoError(t, err)
	return NewProcessor(store, 64), store
}

func decodeFile(t *testing.T, path string) (image.Image, *exif.Exif) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img, nil
	}
	return img, x
}

func TestExport_MissingAssetWritesNothing(t *testing.T) {
	p, _ := newTestProcessor(t)
	dest := filepath.Join(t.TempDir(), "out.jpg")

	res := p.Export(ExportRequest{Asset: &BytesAsset{ID: "empty"}, DestPath: dest})
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, ErrMissingAsset))
	assert.Equal(t, CodeMissingAsset, CodeOf(res.Err))
	assert.NoFileExists(t, dest)

	asset, err := NewFileAsset(t.TempDir(), "nope.jpg")
	require.NoError(t, err)
	res = p.Export(ExportRequest{Asset: asset, DestPath: dest})
	assert.Equal(t, CodeMissingAsset, CodeOf(res.Err))
	assert.NoFileExists(t, dest)
}

func TestExport_DecodeFailure(t *testing.T) {
	p, _ := newTestProcessor(t)
	res := p.Export(ExportRequest{Asset: &BytesAsset{ID: "junk", Data: []byte("not an image")}})
	assert.False(t, res.Success)
	assert.Equal(t, CodeDecodeFailed, CodeOf(res.Err))
}

func TestExport_WriteFailureIsNotSuccess(t *testing.T) {
	p, _ := newTestProcessor(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	res := p.Export(ExportRequest{
		Asset:    &BytesAsset{ID: "a", Data: encodeJPEG(t, 10, 10)},
		DestPath: filepath.Join(blocker, "out.jpg"),
	})
	assert.False(t, res.Success)
	assert.Equal(t, CodeWriteFailed, CodeOf(res.Err))
	assert.Zero(t, res.BytesWritten)
}

func TestExport_TargetSize(t *testing.T) {
	p, _ := newTestProcessor(t)
	src := encodeJPEG(t, 400, 200)

	tests := []struct {
		name   string
		target image.Point
		want   image.Point
	}{
		{"zero keeps original", image.Point{}, image.Pt(400, 200)},
		{"fits inside box", image.Pt(100, 100), image.Pt(100, 50)},
		{"never upscales", image.Pt(1000, 1000), image.Pt(400, 200)},
		{"unbounded height", image.Pt(50, 0), image.Pt(50, 25)},
		{"unbounded width", image.Pt(0, 20), image.Pt(40, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out.jpg")
			res := p.Export(ExportRequest{Asset: &BytesAsset{ID: "a", Data: src}, TargetSize: tt.target, DestPath: dest})
			require.NoError(t, res.Err)
			require.True(t, res.Success)
			assert.Equal(t, tt.want, res.Size)

			img, _ := decodeFile(t, dest)
			assert.Equal(t, tt.want, img.Bounds().Size())

			info, err := os.Stat(dest)
			require.NoError(t, err)
			assert.Equal(t, info.Size(), res.BytesWritten)
		})
	}
}

func TestExport_Thumbnail(t *testing.T) {
	p, _ := newTestProcessor(t)
	res := p.Export(ExportRequest{
		Asset:    &BytesAsset{ID: "a", Data: encodeJPEG(t, 300, 150)},
		DestPath: filepath.Join(t.TempDir(), "out.jpg"),
	})
	require.True(t, res.Success)

	thumb, err := imaging.Decode(bytes.NewReader(res.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 32), thumb.Bounds().Size())
}

func TestExport_KeepsLocationByDefault(t *testing.T) {
	p, _ := newTestProcessor(t)
	dest := filepath.Join(t.TempDir(), "out.jpg")

	res := p.Export(ExportRequest{Asset: &BytesAsset{ID: "a", Data: photoWithGPS(t, 40, 20, 1)}, DestPath: dest})
	require.True(t, res.Success)
	require.NotNil(t, res.Metadata.Latitude)
	assert.InDelta(t, 48.8566, *res.Metadata.Latitude, 1e-3)

	_, x := decodeFile(t, dest)
	require.NotNil(t, x)
	lat, long, err := x.LatLong()
	require.NoError(t, err)
	assert.InDelta(t, 48.8566, lat, 1e-3)
	assert.InDelta(t, 2.3521, long, 1e-3)
}

func TestExport_StripGeoLocation(t *testing.T) {
	p, _ := newTestProcessor(t)
	dest := filepath.Join(t.TempDir(), "out.jpg")

	res := p.Export(ExportRequest{
		Asset:            &BytesAsset{ID: "a", Data: photoWithGPS(t, 40, 20, 1)},
		StripGeoLocation: true,
		DestPath:         dest,
	})
	require.True(t, res.Success)
	assert.Nil(t, res.Metadata.Latitude)
	assert.Nil(t, res.Metadata.Longitude)

	_, x := decodeFile(t, dest)
	require.NotNil(t, x, "non-location EXIF is still carried over")
	_, _, err := x.LatLong()
	assert.Error(t, err)
}

func TestExport_AppliesOrientation(t *testing.T) {
	p, _ := newTestProcessor(t)
	dest := filepath.Join(t.TempDir(), "out.jpg")

	// orientation 6 is rotated 90 degrees clockwise
	res := p.Export(ExportRequest{Asset: &BytesAsset{ID: "a", Data: photoWithGPS(t, 40, 20, 6)}, DestPath: dest})
	require.True(t, res.Success)
	assert.Equal(t, image.Pt(20, 40), res.Size)

	_, x := decodeFile(t, dest)
	require.NotNil(t, x)
	tag, err := x.Get(exif.Orientation)
	require.NoError(t, err)
	o, err := tag.Int(0)
	require.NoError(t, err)
	assert.Equal(t, 1, o)
}

func TestExport_DefaultDestinationInExportsDir(t *testing.T) {
	p, store := newTestProcessor(t)
	res := p.Export(ExportRequest{Asset: &BytesAsset{ID: "a", Data: encodeJPEG(t, 8, 8)}})
	require.True(t, res.Success)

	rel, err := store.RelativePath(res.Path)
	require.NoError(t, err)
	assert.Regexp(t, `^exports/[0-9a-f-]{36}\.jpg$`, rel)
	assert.FileExists(t, res.Path)
}

func TestFileAsset(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.jpg"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0755))

	a, err := NewFileAsset(root, "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", a.Identifier())
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), a.Path())

	for _, rel := range []string{"empty.jpg", "dir"} {
		a, err := NewFileAsset(root, rel)
		require.NoError(t, err)
		_, err = a.Open()
		assert.ErrorIs(t, err, ErrNoRepresentation, rel)
	}
}

func TestLocalStorage(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base, map[AssetType]string{AssetTypeDownload: "downloads"})
	require.NoError(t, err)

	rel, err := store.Save(AssetTypeDownload, "", "", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Regexp(t, `^downloads/[0-9a-f-]{36}$`, rel)

	rc, info, err := store.Get(rel)
	require.NoError(t, err)
	rc.Close()
	assert.EqualValues(t, 4, info.Size())

	_, err = store.Save(AssetTypeDownload, "../escape", "x", bytes.NewReader(nil))
	assert.Error(t, err)

	full, err := store.GetFullPath("../../outside")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.basePath, "outside"), full)

	_, err = store.RelativePath(filepath.Dir(store.basePath))
	assert.Error(t, err)

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, _, err = store.Get(rel)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalStorage_RejectsEscapingSubDir(t *testing.T) {
	_, err := NewLocalStorage(t.TempDir(), map[AssetType]string{AssetTypeExport: "../elsewhere"})
	assert.Error(t, err)
}

func TestImageHelpers(t *testing.T) {
	assert.True(t, IsRasterImage("a/B.JPG"))
	assert.False(t, IsRasterImage("notes.txt"))
	assert.Equal(t, ".jpg", ExtensionForFormat("jpeg"))
	assert.Equal(t, ".png", ExtensionForFormat("png"))
	assert.Empty(t, ExtensionForFormat("webp"))
}

func TestLocalStorage_DefaultsAndUnknownType(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), nil)
	require.NoError(t, err)

	rel, err := store.Save(AssetTypeExport, "site-9", "a.jpg", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "exports/site-9/a.jpg", rel)

	_, err = store.EnsureDir(AssetType("avatars"))
	assert.ErrorIs(t, err, ErrUnknownAssetType)

	entries, err := os.ReadDir(filepath.Join(store.basePath, "exports", "site-9"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.jpg", entries[0].Name())
}
