// Package dxbc is C5: the DXBC container/token decoder. It turns a raw
// byte blob into a shader.Shader — a typed instruction stream plus the
// reflection chunks (signatures, resource tables) later passes consume.
//
// The container reader follows the same idiom saferwall-pe uses for PE's
// header+section table: a fixed-size little-endian header struct read
// via encoding/binary, then an offset/size table of variable-length
// chunks dispatched by a four-character tag.
package dxbc

import (
	"encoding/binary"

	"github.com/mtlshade/dxair/errs"
)

// FourCC is a four-character chunk/tag identifier, stored little-endian
// in the container (so "DXBC" reads as the bytes 'D','X','B','C').
type FourCC [4]byte

func (f FourCC) String() string { return string(f[:]) }

var (
	tagDXBC = FourCC{'D', 'X', 'B', 'C'}
	tagSHEX = FourCC{'S', 'H', 'E', 'X'}
	tagSHDR = FourCC{'S', 'H', 'D', 'R'}
	tagISGN = FourCC{'I', 'S', 'G', 'N'}
	tagISG1 = FourCC{'I', 'S', 'G', '1'}
	tagOSGN = FourCC{'O', 'S', 'G', 'N'}
	tagOSG5 = FourCC{'O', 'S', 'G', '5'}
	tagOSG1 = FourCC{'O', 'S', 'G', '1'}
	tagPCSG = FourCC{'P', 'C', 'S', 'G'}
	tagPSG1 = FourCC{'P', 'S', 'G', '1'}
	tagRDEF = FourCC{'R', 'D', 'E', 'F'}
	tagSFI0 = FourCC{'S', 'F', 'I', '0'}
	tagIFCE = FourCC{'I', 'F', 'C', 'E'}
)

const containerHeaderSize = 32

// containerHeader is the fixed 32-byte DXBC container header (spec §3):
// tag, 16-byte checksum, container version, total size, chunk count,
// followed immediately by a chunkCount-length table of uint32 offsets.
type containerHeader struct {
	Tag        FourCC
	Checksum   [16]byte
	Version    uint32
	TotalSize  uint32
	ChunkCount uint32
}

// chunk is one decoded chunk: its tag and its payload (the bytes after
// the chunk's own 8-byte tag+size header).
type chunk struct {
	Tag     FourCC
	Payload []byte
}

// parseContainer splits raw DXBC bytes into their component chunks,
// validating the header tag and that every offset/size stays in bounds.
func parseContainer(data []byte) ([]chunk, error) {
	if len(data) < containerHeaderSize {
		return nil, errs.New(errs.Malformed, "dxbc: container too small (%d bytes)", len(data))
	}

	var hdr containerHeader
	copy(hdr.Tag[:], data[0:4])
	copy(hdr.Checksum[:], data[4:20])
	hdr.Version = binary.LittleEndian.Uint32(data[20:24])
	hdr.TotalSize = binary.LittleEndian.Uint32(data[24:28])
	hdr.ChunkCount = binary.LittleEndian.Uint32(data[28:32])

	if hdr.Tag != tagDXBC {
		return nil, errs.New(errs.Malformed, "dxbc: bad container tag %q", hdr.Tag)
	}
	if int(hdr.TotalSize) > len(data) {
		return nil, errs.New(errs.Malformed, "dxbc: declared size %d exceeds buffer of %d bytes", hdr.TotalSize, len(data))
	}

	offsetTableEnd := containerHeaderSize + int(hdr.ChunkCount)*4
	if offsetTableEnd > len(data) {
		return nil, errs.New(errs.Malformed, "dxbc: chunk offset table overruns buffer")
	}

	chunks := make([]chunk, 0, hdr.ChunkCount)
	for i := 0; i < int(hdr.ChunkCount); i++ {
		off := binary.LittleEndian.Uint32(data[containerHeaderSize+i*4:])
		if int(off)+8 > len(data) {
			return nil, errs.New(errs.Malformed, "dxbc: chunk %d offset %d out of bounds", i, off)
		}
		var tag FourCC
		copy(tag[:], data[off:off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		start := int(off) + 8
		end := start + int(size)
		if end > len(data) {
			return nil, errs.New(errs.Malformed, "dxbc: chunk %q size %d overruns buffer", tag, size)
		}
		chunks = append(chunks, chunk{Tag: tag, Payload: data[start:end]})
	}
	return chunks, nil
}

func findChunk(chunks []chunk, tags ...FourCC) (chunk, bool) {
	for _, want := range tags {
		for _, c := range chunks {
			if c.Tag == want {
				return c, true
			}
		}
	}
	return chunk{}, false
}
