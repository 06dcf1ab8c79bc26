package rtabi

// Target configuration
const (
	// TargetTriple is the LLVM target triple for code generation.
	TargetTriple = "x86_64-pc-linux-gnu"

	// DataLayout is the LLVM data layout string matching the target.
	DataLayout = "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-i128:128-f80:128-n8:16:32:64-S128"
)

// Basic type sizes in bytes
const (
	SizeBool   = 1
	SizeByte   = 1
	SizeShort  = 2
	SizeInt    = 4
	SizeLong   = 8
	SizeFloat  = 4
	SizeDouble = 8
	SizePtr    = 8
)

// LLVM type names for code generation
const (
	LLVMTypeInt  = "i32"
	LLVMTypeSize = "i64"
	LLVMTypeBool = "i1"
	LLVMTypePtr  = "ptr" // opaque pointer (LLVM 15+)
)
