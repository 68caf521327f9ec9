package transform

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// jpegInfo holds the encoding properties the canonicalization check needs.
// They come from the SOF segment of the actual byte stream, not from the
// declared content type, which guarantees nothing about the encoding.
type jpegInfo struct {
	Progressive bool
	// Components is the component count from the frame header: 1 for
	// grayscale, 3 for YCbCr, 4 for CMYK.
	Components int
	// Chroma is the subsampling scheme of a 3-component image
	// ("4:2:0", "4:2:2", "4:4:4", "4:4:0"). Empty when the image has no
	// chroma planes or uses a layout outside that set, such as 4:1:1.
	Chroma string
}

var errNotJPEG = errors.New("not a JPEG stream")

const (
	markerSOI  = 0xd8
	markerSOS  = 0xda
	markerEOI  = 0xd9
	markerSOF0 = 0xc0
	markerSOF2 = 0xc2
)

// scanJPEG walks the marker segments of data up to the start-of-scan and
// extracts the frame type and component sampling factors.
func scanJPEG(data []byte) (jpegInfo, error) {
	var info jpegInfo

	if len(data) < 4 || data[0] != 0xff || data[1] != markerSOI {
		return info, errNotJPEG
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xff {
			return info, fmt.Errorf("corrupt JPEG: expected marker at offset %d", i)
		}
		marker := data[i+1]
		// Skip fill bytes and standalone markers (RSTn, TEM).
		if marker == 0xff {
			i++
			continue
		}
		if marker == markerEOI || marker == markerSOS {
			break
		}
		if (marker >= 0xd0 && marker <= 0xd7) || marker == 0x01 {
			i += 2
			continue
		}

		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return info, fmt.Errorf("corrupt JPEG: truncated segment at offset %d", i)
		}

		if isSOF(marker) {
			sof := data[i+4 : i+2+length]
			info.Progressive = marker == markerSOF2 || marker == 0xc6 || marker == 0xca || marker == 0xce
			if len(sof) >= 6 {
				info.Components = int(sof[5])
			}
			info.Chroma = chromaOf(sof)
			return info, nil
		}

		i += 2 + length
	}

	return info, fmt.Errorf("corrupt JPEG: no frame header found")
}

// isSOF reports whether marker is a start-of-frame marker (SOF0-SOF15,
// excluding DHT/JPG/DAC which share the range).
func isSOF(marker byte) bool {
	if marker < 0xc0 || marker > 0xcf {
		return false
	}
	switch marker {
	case 0xc4, 0xc8, 0xcc: // DHT, JPG, DAC
		return false
	}
	return true
}

// chromaOf derives the subsampling scheme from a SOF payload (after the
// length word): precision, height, width, component count, then per
// component id/sampling/quant-table triples.
func chromaOf(sof []byte) string {
	if len(sof) < 6 {
		return ""
	}
	ncomp := int(sof[5])
	if ncomp != 3 || len(sof) < 6+3*ncomp {
		return ""
	}

	// Luma sampling factors relative to 1x1 chroma.
	h := sof[7] >> 4
	v := sof[7] & 0x0f
	for c := 1; c < 3; c++ {
		s := sof[6+3*c+1]
		if s != 0x11 {
			// Chroma planes subsampled differently; not a layout the
			// canonical profile recognizes.
			return ""
		}
	}

	switch {
	case h == 2 && v == 2:
		return "4:2:0"
	case h == 2 && v == 1:
		return "4:2:2"
	case h == 1 && v == 2:
		return "4:4:0"
	case h == 1 && v == 1:
		return "4:4:4"
	}
	return ""
}
