package codegen

// AIRTargetTriple is the fixed LLVM target triple every AIR module declares,
// matching Metal's air64 architecture (spec §3).
const AIRTargetTriple = "air64-apple-macosx14.0.0"

// AIRTargetTripleIOS is the air64 triple variant used when the metallib's
// platform family targets iOS/tvOS rather than macOS. Nothing in this
// module selects it: the root package always builds with AIRTargetTriple.
const AIRTargetTripleIOS = "air64-apple-ios17.0.0"
