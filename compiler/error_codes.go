package compiler

const (
	// Workspace stage
	ErrCodeWorkspaceRead   = "WORKSPACE_READ_ERROR"
	ErrCodeWorkspaceFormat = "WORKSPACE_FORMAT_ERROR"
	ErrCodeWorkspaceDecode = "WORKSPACE_DECODE_ERROR"

	// Validate stage
	ErrCodeValidateShape = "VALIDATE_SHAPE_ERROR"

	// Assembly stage
	ErrCodeAssemblyUnknownBlockType = "ASSEMBLY_UNKNOWN_BLOCK_TYPE"
	ErrCodeAssemblyGenerate         = "ASSEMBLY_GENERATE_ERROR"

	// Emit stage
	ErrCodeEmitCanonical = "EMIT_CANONICAL_ERROR"
	ErrCodeEmitGoSource  = "EMIT_GO_SOURCE_ERROR"
)

// StableErrorCodes is the canonical registry of compiler/CLI stage error codes.
var StableErrorCodes = []string{
	ErrCodeWorkspaceRead,
	ErrCodeWorkspaceFormat,
	ErrCodeWorkspaceDecode,
	ErrCodeValidateShape,
	ErrCodeAssemblyUnknownBlockType,
	ErrCodeAssemblyGenerate,
	ErrCodeEmitCanonical,
	ErrCodeEmitGoSource,
}
