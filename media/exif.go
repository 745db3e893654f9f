package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// JPEG APP1 segments carrying EXIF start with this header, followed by a
// TIFF structure.
var exifHeader = []byte("Exif\x00\x00")

const (
	tagOrientation = 0x0112
	tagGPSPointer  = 0x8825
	ifdEntrySize   = 12
	maxSegmentLen  = 0xFFFF
)

var errMalformedExif = errors.New("malformed exif block")

// exifSegment returns a copy of the EXIF APP1 payload (header included) of a
// JPEG stream, or nil if there is none.
func exifSegment(jpegData []byte) []byte {
	if len(jpegData) < 4 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil
	}
	i := 2
	for i+4 <= len(jpegData) {
		if jpegData[i] != 0xFF {
			return nil
		}
		marker := jpegData[i+1]
		if marker == 0xFF { // fill byte
			i++
			continue
		}
		if marker == 0xDA || marker == 0xD9 { // start of scan, end of image
			return nil
		}
		if marker >= 0xD0 && marker <= 0xD7 || marker == 0x01 {
			i += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(jpegData[i+2 : i+4]))
		if length < 2 || i+2+length > len(jpegData) {
			return nil
		}
		payload := jpegData[i+4 : i+2+length]
		if marker == 0xE1 && bytes.HasPrefix(payload, exifHeader) {
			return append([]byte(nil), payload...)
		}
		i += 2 + length
	}
	return nil
}

// withExifSegment inserts payload as an APP1 segment right after SOI.
func withExifSegment(jpegData, payload []byte) ([]byte, error) {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil, errors.New("not a jpeg stream")
	}
	if len(payload)+2 > maxSegmentLen {
		return nil, fmt.Errorf("exif block of %d bytes does not fit in one segment", len(payload))
	}
	out := make([]byte, 0, len(jpegData)+len(payload)+4)
	out = append(out, 0xFF, 0xD8, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	out = append(out, jpegData[2:]...)
	return out, nil
}

type tiffBlock struct {
	data  []byte // TIFF structure, offsets are relative to its start
	order binary.ByteOrder
}

func parseTIFF(payload []byte) (*tiffBlock, error) {
	if !bytes.HasPrefix(payload, exifHeader) {
		return nil, errMalformedExif
	}
	data := payload[len(exifHeader):]
	if len(data) < 8 {
		return nil, errMalformedExif
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errMalformedExif
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, errMalformedExif
	}
	return &tiffBlock{data: data, order: order}, nil
}

func (t *tiffBlock) ifd0() int {
	return int(t.order.Uint32(t.data[4:8]))
}

// entries returns the offset of the first entry and the entry count of the
// IFD at off.
func (t *tiffBlock) entries(off int) (int, int, error) {
	if off < 8 || off+2 > len(t.data) {
		return 0, 0, errMalformedExif
	}
	n := int(t.order.Uint16(t.data[off : off+2]))
	if off+2+n*ifdEntrySize+4 > len(t.data) {
		return 0, 0, errMalformedExif
	}
	return off + 2, n, nil
}

func (t *tiffBlock) findEntry(ifd int, tag uint16) (int, error) {
	first, n, err := t.entries(ifd)
	if err != nil {
		return -1, err
	}
	for i := 0; i < n; i++ {
		e := first + i*ifdEntrySize
		if t.order.Uint16(t.data[e:e+2]) == tag {
			return e, nil
		}
	}
	return -1, nil
}

func typeSize(typ uint16) int {
	switch typ {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12: // RATIONAL, SRATIONAL, DOUBLE
		return 8
	default:
		return 0
	}
}

// resetOrientation rewrites IFD0's orientation to 1 (top-left). Export
// output is already rotated upright.
func (t *tiffBlock) resetOrientation() error {
	e, err := t.findEntry(t.ifd0(), tagOrientation)
	if err != nil || e < 0 {
		return err
	}
	if t.order.Uint16(t.data[e+2:e+4]) != 3 {
		return errMalformedExif
	}
	t.order.PutUint16(t.data[e+8:e+10], 1)
	return nil
}

// removeGPS zeroes the GPS IFD (entries and out-of-line values) and drops
// its pointer from IFD0.
func (t *tiffBlock) removeGPS() error {
	ifd0 := t.ifd0()
	ptr, err := t.findEntry(ifd0, tagGPSPointer)
	if err != nil || ptr < 0 {
		return err
	}

	gps := int(t.order.Uint32(t.data[ptr+8 : ptr+12]))
	first, n, err := t.entries(gps)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		e := first + i*ifdEntrySize
		size := typeSize(t.order.Uint16(t.data[e+2:e+4])) * int(t.order.Uint32(t.data[e+4:e+8]))
		if size > 4 {
			valOff := int(t.order.Uint32(t.data[e+8 : e+12]))
			if valOff >= 8 && valOff+size <= len(t.data) {
				clear(t.data[valOff : valOff+size])
			}
		}
	}
	clear(t.data[gps : first+n*ifdEntrySize+4])

	// shift the remaining IFD0 entries and the next-IFD offset over the pointer
	ifd0First, ifd0Count, err := t.entries(ifd0)
	if err != nil {
		return err
	}
	end := ifd0First + ifd0Count*ifdEntrySize + 4
	copy(t.data[ptr:], t.data[ptr+ifdEntrySize:end])
	clear(t.data[end-ifdEntrySize : end])
	t.order.PutUint16(t.data[ifd0:ifd0+2], uint16(ifd0Count-1))
	return nil
}

// sanitizeExif returns a copy of payload fit to travel with a re-encoded,
// upright image: orientation reset and, when stripGPS is set, location removed.
func sanitizeExif(payload []byte, stripGPS bool) ([]byte, error) {
	out := append([]byte(nil), payload...)
	t, err := parseTIFF(out)
	if err != nil {
		return nil, err
	}
	if err := t.resetOrientation(); err != nil {
		return nil, fmt.Errorf("reset orientation: %w", err)
	}
	if stripGPS {
		if err := t.removeGPS(); err != nil {
			return nil, fmt.Errorf("remove gps: %w", err)
		}
	}
	return out, nil
}
