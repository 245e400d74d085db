package codegen

// AIRDataLayout is the fixed LLVM data layout string every AIR module
// declares. Its vector-alignment entries (v16 through v1024) are what let
// the facade build Metal's 2/3/4-component vector types (float2, int3,
// uint4, ...) with the natural alignment Metal's ABI expects (spec §3).
const AIRDataLayout = "e-p:64:64:64-i1:8:8-i8:8:8-i16:16:16-i32:32:32-i64:64:64-" +
	"f32:32:32-f64:64:64-v16:16:16-v24:32:32-v32:32:32-v48:64:64-" +
	"v64:64:64-v96:128:128-v128:128:128-v192:256:256-v256:256:256-" +
	"v512:512:512-v1024:1024:1024-n8:16:32"
