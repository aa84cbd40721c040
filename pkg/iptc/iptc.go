// Package iptc writes and reads the IPTC-IIM "Object Name" (title) dataset
// stored in the Photoshop APP13 segment of JPEG files.
package iptc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// IIM dataset identifiers
const (
	tagMarker           = 0x1C
	recordEnvelope      = 1
	datasetCharacterSet = 90
	recordApplication   = 2
	datasetObjectName   = 5 // "2#005"
)

const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP13 = 0xED

	maxSegmentLen = 0xFFFF
	maxDatasetLen = 0x7FFF // longer values need the extended length form
)

var (
	photoshopHeader = []byte("Photoshop 3.0\x00")
	irbSignature    = []byte("8BIM")
	irbIPTC         = uint16(0x0404)
	utf8Escape      = []byte{0x1B, 0x25, 0x47} // ESC % G
)

var (
	ErrNotJPEG      = errors.New("iptc: not a JPEG stream")
	ErrCorrupt      = errors.New("iptc: corrupt JPEG segment structure")
	ErrValueTooLong = errors.New("iptc: value too long")
	ErrNoTitle      = errors.New("iptc: no object name present")
)

// EmbedTitle returns a copy of the JPEG data with an APP13 segment holding the
// given UTF-8 title as IPTC Object Name. An existing Photoshop APP13 segment
// is replaced; all other segments and the image data are kept byte for byte.
func EmbedTitle(data []byte, title string) ([]byte, error) {
	if !IsJPEG(data) {
		return nil, ErrNotJPEG
	}

	segment, err := buildAPP13(title)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(segment))
	out.Write(data[:2])

	inserted := false
	pos := 2
	for pos < len(data) {
		marker, start, end, err := nextSegment(data, pos)
		if err != nil {
			return nil, err
		}
		if marker == markerSOS || marker == markerEOI {
			break
		}

		if !inserted && marker != markerAPP0 && marker != markerAPP1 {
			out.Write(segment)
			inserted = true
		}
		if !isPhotoshopSegment(marker, data[start:end]) {
			out.Write(data[start:end])
		}
		pos = end
	}

	if !inserted {
		out.Write(segment)
	}
	out.Write(data[pos:])
	return out.Bytes(), nil
}

// EmbedTitleFile reads src, embeds title and writes the result to dst. The
// source file is never modified.
func EmbedTitleFile(src, dst, title string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out, err := EmbedTitle(data, title)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, out, 0644)
}

// ReadTitle extracts the IPTC Object Name from a JPEG.
func ReadTitle(data []byte) (string, error) {
	if !IsJPEG(data) {
		return "", ErrNotJPEG
	}

	pos := 2
	for pos < len(data) {
		marker, start, end, err := nextSegment(data, pos)
		if err != nil {
			return "", err
		}
		if marker == markerSOS || marker == markerEOI {
			break
		}
		if isPhotoshopSegment(marker, data[start:end]) {
			if title, ok := titleFromIRB(data[start+4+len(photoshopHeader) : end]); ok {
				return title, nil
			}
		}
		pos = end
	}
	return "", ErrNoTitle
}

// IsJPEG reports whether data starts with the JPEG SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 4 && data[0] == 0xFF && data[1] == markerSOI
}

// nextSegment locates the segment starting at pos. start and end delimit the
// whole segment including its marker bytes.
func nextSegment(data []byte, pos int) (marker byte, start, end int, err error) {
	if data[pos] != 0xFF {
		return 0, 0, 0, ErrCorrupt
	}
	// Fill bytes: any number of 0xFF may precede the marker code. They are
	// not part of the returned segment.
	for pos < len(data) && data[pos] == 0xFF {
		pos++
	}
	if pos >= len(data) {
		return 0, 0, 0, ErrCorrupt
	}
	start = pos - 1
	marker = data[pos]
	pos++

	// Standalone markers carry no length field.
	if marker == markerSOI || marker == markerEOI || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
		return marker, start, pos, nil
	}
	if marker == markerSOS {
		return marker, start, pos, nil
	}

	if pos+2 > len(data) {
		return 0, 0, 0, ErrCorrupt
	}
	length := int(binary.BigEndian.Uint16(data[pos : pos+2]))
	if length < 2 || pos+length > len(data) {
		return 0, 0, 0, ErrCorrupt
	}
	return marker, start, pos + length, nil
}

func isPhotoshopSegment(marker byte, segment []byte) bool {
	if marker != markerAPP13 || len(segment) < 4+len(photoshopHeader) {
		return false
	}
	return bytes.Equal(segment[4:4+len(photoshopHeader)], photoshopHeader)
}

func buildAPP13(title string) ([]byte, error) {
	if len(title) > maxDatasetLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLong, len(title))
	}

	var iim bytes.Buffer
	writeDataset(&iim, recordEnvelope, datasetCharacterSet, utf8Escape)
	writeDataset(&iim, recordApplication, datasetObjectName, []byte(title))

	var irb bytes.Buffer
	irb.Write(irbSignature)
	binary.Write(&irb, binary.BigEndian, irbIPTC)
	irb.Write([]byte{0, 0}) // empty pascal name, padded to even length
	binary.Write(&irb, binary.BigEndian, uint32(iim.Len()))
	irb.Write(iim.Bytes())
	if iim.Len()%2 == 1 {
		irb.WriteByte(0)
	}

	length := 2 + len(photoshopHeader) + irb.Len()
	if length > maxSegmentLen {
		return nil, fmt.Errorf("%w: APP13 segment of %d bytes", ErrValueTooLong, length)
	}

	seg := make([]byte, 0, length+2)
	seg = append(seg, 0xFF, markerAPP13, byte(length>>8), byte(length))
	seg = append(seg, photoshopHeader...)
	seg = append(seg, irb.Bytes()...)
	return seg, nil
}

func writeDataset(buf *bytes.Buffer, record, dataset byte, value []byte) {
	buf.WriteByte(tagMarker)
	buf.WriteByte(record)
	buf.WriteByte(dataset)
	binary.Write(buf, binary.BigEndian, uint16(len(value)))
	buf.Write(value)
}

// titleFromIRB walks Photoshop image resource blocks looking for the IPTC
// block and the 2:05 dataset inside it.
func titleFromIRB(irb []byte) (string, bool) {
	for len(irb) >= 12 {
		if !bytes.Equal(irb[:4], irbSignature) {
			return "", false
		}
		id := binary.BigEndian.Uint16(irb[4:6])
		nameLen := int(irb[6])
		nameField := 1 + nameLen
		if nameField%2 == 1 {
			nameField++
		}
		sizeAt := 6 + nameField
		if sizeAt+4 > len(irb) {
			return "", false
		}
		size := int(binary.BigEndian.Uint32(irb[sizeAt : sizeAt+4]))
		dataAt := sizeAt + 4
		if dataAt+size > len(irb) {
			return "", false
		}
		if id == irbIPTC {
			return objectName(irb[dataAt : dataAt+size])
		}
		next := dataAt + size
		if size%2 == 1 {
			next++
		}
		if next > len(irb) {
			return "", false
		}
		irb = irb[next:]
	}
	return "", false
}

func objectName(iim []byte) (string, bool) {
	for len(iim) >= 5 && iim[0] == tagMarker {
		record, dataset := iim[1], iim[2]
		size := int(binary.BigEndian.Uint16(iim[3:5]))
		if size&0x8000 != 0 || 5+size > len(iim) {
			return "", false
		}
		if record == recordApplication && dataset == datasetObjectName {
			return string(iim[5 : 5+size]), true
		}
		iim = iim[5+size:]
	}
	return "", false
}
