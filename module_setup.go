package dxair

import (
	"strconv"
	"strings"

	"github.com/mtlshade/dxair/codegen"
)

// newModule builds an empty AIR module carrying the fixed target triple
// and data layout every stage function is emitted into (spec §3),
// grounded on original_source/src/airconv/airconv_context.cpp's
// Convert(): the same triple, data layout and module-flag set it builds
// by hand before running its own instruction-selection pass.
func newModule(name string) *codegen.Module {
	return codegen.NewModule(name+".air", codegen.AIRTargetTriple, codegen.AIRDataLayout)
}

// moduleFlag mirrors one addModuleFlag call from airconv_context.cpp:
// a named scalar flag with an LLVM module-flag merge behavior (Error=1,
// Max=7 in LLVM's ModFlagBehavior enum).
type moduleFlag struct {
	behavior int64
	key      string
	value    int64
}

const (
	modFlagError = 1
	modFlagMax   = 7
)

// emitModuleMetadata attaches the module flags, `air.version`,
// `air.language_version` and `air.compile_options` named-metadata
// streams every finished AIR module carries (spec §3), grounded
// verbatim on airconv_context.cpp's Convert() (the air.version/
// air.language_version/air.compile_options calls are commented out
// there, but their literal operand lists are what this mirrors).
func emitModuleMetadata(m *codegen.Module, languageVersion string) {
	flags := []moduleFlag{
		{modFlagError, "wchar_size", 4},
		{modFlagMax, "frame-pointer", 2},
		{modFlagMax, "air.max_device_buffers", 31},
		{modFlagMax, "air.max_constant_buffers", 31},
		{modFlagMax, "air.max_threadgroup_buffers", 31},
		{modFlagMax, "air.max_textures", 128},
		{modFlagMax, "air.max_read_write_textures", 8},
		{modFlagMax, "air.max_samplers", 16},
	}
	for _, f := range flags {
		m.AddNamedMetadataTuple("llvm.module.flags",
			codegen.MDInt(f.behavior), codegen.MDString(f.key), codegen.MDInt(f.value))
	}

	m.AddNamedMetadataTuple("air.version", codegen.MDInt(2), codegen.MDInt(6), codegen.MDInt(0))

	langMajor, langMinor := parseLanguageVersion(languageVersion)
	m.AddNamedMetadataTuple("air.language_version",
		codegen.MDString("Metal"), codegen.MDInt(int64(langMajor)), codegen.MDInt(int64(langMinor)), codegen.MDInt(0))

	for _, opt := range []string{
		"air.compile.denorms_disable",
		"air.compile.fast_math_enable",
		"air.compile.framebuffer_fetch_enable",
	} {
		m.AddNamedMetadataTuple("air.compile_options", codegen.MDString(opt))
	}
}

// parseLanguageVersion splits a "major.minor" AIR language version
// string (stage_args' default "3.1", spec §6) into its two components,
// falling back to 3.1 on anything malformed rather than failing the
// whole conversion over a cosmetic metadata field.
func parseLanguageVersion(v string) (major, minor int) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) != 2 {
		return 3, 1
	}
	maj, err1 := strconv.Atoi(parts[0])
	min, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 3, 1
	}
	return maj, min
}
