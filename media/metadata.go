package media

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// helper to safely get and convert a rational tag (like Aperture, FocalLength)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

func getInt(exifData *exif.Exif, tagName exif.FieldName) *int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val := strings.Trim(strings.TrimRight(tag.String(), "\x00"), `"`)
	if val == "" {
		return nil
	}
	return &val
}

func getShutterSpeed(exifData *exif.Exif) *string {
	tag, err := exifData.Get(exif.ExposureTime)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}

	if num == 1 && den > 1 { // common case: 1/XXX
		s := fmt.Sprintf("1/%d", den)
		return &s
	}

	val := float64(num) / float64(den)
	var s string
	if val >= 1.0 {
		s = fmt.Sprintf("%.1fs", val)
	} else {
		s = fmt.Sprintf("%.4fs", val)
	}
	return &s
}

// ReadMetadata extracts dimensions and EXIF fields from encoded image data.
// Missing EXIF is not an error; only the dimensions are reported then.
func ReadMetadata(data []byte) *Metadata {
	meta := &Metadata{}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		w, h := cfg.Width, cfg.Height
		meta.Width = &w
		meta.Height = &h
	}

	exifData, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	meta.Aperture = getRational(exifData, exif.FNumber)
	meta.ShutterSpeed = getShutterSpeed(exifData)
	meta.ISO = getInt(exifData, exif.ISOSpeedRatings)
	meta.FocalLength = getRational(exifData, exif.FocalLength)
	meta.LensMake = getString(exifData, exif.LensMake)
	meta.LensModel = getString(exifData, exif.LensModel)
	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)

	if dt, err := exifData.DateTime(); err == nil {
		ts := dt.Unix()
		meta.TakenAt = &ts
	}

	if lat, long, err := exifData.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	} else if !exif.IsTagNotPresentError(err) {
		log.Printf("metadata: Could not read GPS position: %v", err)
	}

	return meta
}
