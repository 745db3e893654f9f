package media

import (
	"errors"
	"fmt"
)

// ErrorCode classifies export failures.
type ErrorCode string

const (
	CodeMissingAsset ErrorCode = "missing_asset"
	CodeDecodeFailed ErrorCode = "decode_failed"
	CodeEncodeFailed ErrorCode = "encode_failed"
	CodeWriteFailed  ErrorCode = "write_failed"
)

var (
	// ErrNoRepresentation is returned by Asset.Open when the asset has no
	// data that can be read.
	ErrNoRepresentation = errors.New("asset has no retrievable representation")

	// ErrMissingAsset is the export failure for assets that could not be opened.
	ErrMissingAsset = errors.New("missing asset")
)

// ExportError carries the failure code of an export together with its cause.
type ExportError struct {
	Code ErrorCode
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Code, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// CodeOf returns the export error code of err, or "" if err is not an ExportError.
func CodeOf(err error) ErrorCode {
	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Code
	}
	return ""
}
