package dxbc

import (
	"encoding/binary"

	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// signature chunks (ISGN/OSGN/PCSG and their *1/*5 successors, spec §4.4)
// share one layout: a uint32 element count, a reserved uint32, then
// elementCount fixed-size rows each holding a string-table offset for
// the semantic name plus the packed register/mask/system-value fields.
// ISG1/OSG1/PSG1 add a trailing min-precision field per row.

const sigRowSizeV0 = 24
const sigRowSizeV1 = 28

func decodeSignature(payload []byte, stream int, v1 bool) ([]shader.SignatureEntry, error) {
	if len(payload) < 8 {
		return nil, errs.New(errs.Malformed, "dxbc: signature chunk too small")
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	rowSize := sigRowSizeV0
	if v1 {
		rowSize = sigRowSizeV1
	}

	entries := make([]shader.SignatureEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		off := 8 + int(i)*rowSize
		if off+rowSize > len(payload) {
			return nil, errs.New(errs.Malformed, "dxbc: signature row %d overruns chunk", i)
		}
		row := payload[off : off+rowSize]

		nameOff := binary.LittleEndian.Uint32(row[0:4])
		semanticIndex := binary.LittleEndian.Uint32(row[4:8])
		systemValue := binary.LittleEndian.Uint32(row[8:12])
		componentType := binary.LittleEndian.Uint32(row[12:16])
		register := binary.LittleEndian.Uint32(row[16:20])
		mask := row[20]
		rwMask := row[21]
		_ = rwMask

		name, err := readCString(payload, int(nameOff))
		if err != nil {
			return nil, err
		}

		entry := shader.SignatureEntry{
			Stream:        stream,
			SemanticName:  name,
			SemanticIndex: int(semanticIndex),
			SystemValue:   int(systemValue),
			ComponentType: mapComponentType(componentType),
			Register:      int(register),
			Mask:          mask,
		}
		if v1 {
			minPrecision := binary.LittleEndian.Uint32(row[24:28])
			entry.MinPrecision = minPrecision != 0
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func mapComponentType(v uint32) shader.DataType {
	switch v {
	case 1:
		return shader.Uint
	case 2:
		return shader.Int
	case 3:
		return shader.Float
	default:
		return shader.Unknown
	}
}

func readCString(buf []byte, offset int) (string, error) {
	if offset < 0 || offset > len(buf) {
		return "", errs.New(errs.Malformed, "dxbc: string table offset %d out of bounds", offset)
	}
	end := offset
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	if end >= len(buf) {
		return "", errs.New(errs.Malformed, "dxbc: unterminated string at offset %d", offset)
	}
	return string(buf[offset:end]), nil
}
