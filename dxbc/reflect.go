package dxbc

import (
	"encoding/binary"

	"github.com/mtlshade/dxair/errs"
	"github.com/mtlshade/dxair/shader"
)

// RDEF resource-binding description codes (D3D_SHADER_INPUT_TYPE, spec
// §3/§4.4's "Binding key" table).
const (
	rdefInputCBuffer  = 0
	rdefInputTexture  = 2
	rdefInputSampler  = 3
	rdefInputStructured = 4
	rdefInputUAVRWTyped = 5
	rdefInputUAVRWStructured = 6
	rdefInputByteAddress = 7
	rdefInputUAVRWByteAddress = 8
	rdefInputUAVAppendStructured = 9
	rdefInputUAVConsumeStructured = 10
	rdefInputUAVRWStructuredCounter = 11
)

// decodeRDEF parses the RDEF chunk: a header giving counts and table
// offsets for constant buffers and resource bindings, followed by the
// two tables themselves (spec §4.4).
func decodeRDEF(payload []byte) (shader.Reflection, error) {
	var refl shader.Reflection
	if len(payload) < 24 {
		return refl, errs.New(errs.Malformed, "dxbc: RDEF chunk too small")
	}

	cbCount := binary.LittleEndian.Uint32(payload[0:4])
	cbOffset := binary.LittleEndian.Uint32(payload[4:8])
	bindCount := binary.LittleEndian.Uint32(payload[8:12])
	bindOffset := binary.LittleEndian.Uint32(payload[12:16])

	cbs, err := decodeConstantBuffers(payload, cbOffset, cbCount)
	if err != nil {
		return refl, err
	}
	refl.ConstantBuffers = cbs

	textures, uavs, samplers, err := decodeBindings(payload, bindOffset, bindCount)
	if err != nil {
		return refl, err
	}
	refl.Textures = textures
	refl.UAVs = uavs
	refl.Samplers = samplers
	return refl, nil
}

const cbHeaderSize = 24
const cbVarSize = 40

func decodeConstantBuffers(payload []byte, offset, count uint32) ([]shader.ConstantBuffer, error) {
	cbs := make([]shader.ConstantBuffer, 0, count)
	for i := uint32(0); i < count; i++ {
		off := int(offset) + int(i)*cbHeaderSize
		if off+cbHeaderSize > len(payload) {
			return nil, errs.New(errs.Malformed, "dxbc: constant buffer %d header overruns chunk", i)
		}
		row := payload[off : off+cbHeaderSize]
		nameOff := binary.LittleEndian.Uint32(row[0:4])
		varCount := binary.LittleEndian.Uint32(row[4:8])
		varOffset := binary.LittleEndian.Uint32(row[8:12])
		size := binary.LittleEndian.Uint32(row[12:16])

		name, err := readCString(payload, int(nameOff))
		if err != nil {
			return nil, err
		}

		vars := make([]shader.CBVariable, 0, varCount)
		for v := uint32(0); v < varCount; v++ {
			voff := int(varOffset) + int(v)*cbVarSize
			if voff+cbVarSize > len(payload) {
				return nil, errs.New(errs.Malformed, "dxbc: constant buffer %q variable %d overruns chunk", name, v)
			}
			vrow := payload[voff : voff+cbVarSize]
			vName, err := readCString(payload, int(binary.LittleEndian.Uint32(vrow[0:4])))
			if err != nil {
				return nil, err
			}
			vars = append(vars, shader.CBVariable{
				Name:        vName,
				StartOffset: int(binary.LittleEndian.Uint32(vrow[4:8])),
				SizeBytes:   int(binary.LittleEndian.Uint32(vrow[8:12])),
			})
		}

		cbs = append(cbs, shader.ConstantBuffer{Name: name, SizeBytes: int(size), Variables: vars})
	}
	return cbs, nil
}

const bindRowSize = 40

func decodeBindings(payload []byte, offset, count uint32) ([]shader.Texture, []shader.UAV, []shader.Sampler, error) {
	var textures []shader.Texture
	var uavs []shader.UAV
	var samplers []shader.Sampler

	for i := uint32(0); i < count; i++ {
		off := int(offset) + int(i)*bindRowSize
		if off+bindRowSize > len(payload) {
			return nil, nil, nil, errs.New(errs.Malformed, "dxbc: resource binding %d overruns chunk", i)
		}
		row := payload[off : off+bindRowSize]
		nameOff := binary.LittleEndian.Uint32(row[0:4])
		inputType := binary.LittleEndian.Uint32(row[4:8])
		retType := binary.LittleEndian.Uint32(row[8:12])
		dimension := binary.LittleEndian.Uint32(row[12:16])
		bindPoint := binary.LittleEndian.Uint32(row[20:24])
		bindCount := binary.LittleEndian.Uint32(row[24:28])

		name, err := readCString(payload, int(nameOff))
		if err != nil {
			return nil, nil, nil, err
		}

		switch inputType {
		case rdefInputSampler:
			samplers = append(samplers, shader.Sampler{Name: name, Register: int(bindPoint)})
		case rdefInputTexture, rdefInputStructured, rdefInputByteAddress:
			textures = append(textures, shader.Texture{
				Name:       name,
				Register:   int(bindPoint),
				BindCount:  int(bindCount),
				Dimension:  int(dimension),
				ReturnType: mapComponentType(retType),
				Structured: inputType == rdefInputStructured,
			})
		case rdefInputUAVRWTyped, rdefInputUAVRWStructured, rdefInputUAVRWByteAddress,
			rdefInputUAVAppendStructured, rdefInputUAVConsumeStructured, rdefInputUAVRWStructuredCounter:
			uavs = append(uavs, shader.UAV{
				Name:       name,
				Register:   int(bindPoint),
				BindCount:  int(bindCount),
				Dimension:  int(dimension),
				ReturnType: mapComponentType(retType),
				Structured: inputType != rdefInputUAVRWTyped && inputType != rdefInputUAVRWByteAddress,
				HasCounter: inputType == rdefInputUAVRWStructuredCounter,
			})
		}
	}
	return textures, uavs, samplers, nil
}

// decodeSFI0 reads the SFI0 "shader feature info" chunk: a bitfield of
// optional-capability flags the translator gates certain lowerings on
// (spec §4.4's GlobalFlags).
func decodeSFI0(payload []byte) (uint32, error) {
	if len(payload) < 8 {
		return 0, errs.New(errs.Malformed, "dxbc: SFI0 chunk too small")
	}
	flags := binary.LittleEndian.Uint64(payload[0:8])
	return uint32(flags), nil
}
