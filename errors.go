package jct

import "github.com/banksean/jct/jcterr"

// Top-level error kinds (spec §7). These are aliases onto jcterr's types so
// that every layer of the harness — file objects, containers, groups, the
// file manager, and the workspace itself — raises and tests against the
// same underlying values, without package jct importing anything that
// would create a cycle back to itself.
var (
	// ErrWorkspaceClosed is returned by any Workspace operation performed
	// after Close.
	ErrWorkspaceClosed = jcterr.ErrWorkspaceClosed
	// ErrFileManagerClosed is returned by any FileManager operation
	// performed after the owning Workspace closed it.
	ErrFileManagerClosed = jcterr.ErrFileManagerClosed
)

type (
	// IllegalNameError reports a rejected directory or file name inside a
	// workspace-owned path (empty, a separator, or "..").
	IllegalNameError = jcterr.IllegalNameError
	// IllegalOperationError reports a structural misuse of the file
	// manager, such as writing to a location that is not configured as an
	// output.
	IllegalOperationError = jcterr.IllegalOperationError
	// GroupCloseError aggregates the per-container failures encountered
	// while releasing one container group.
	GroupCloseError = jcterr.AggregateError
	// WorkspaceCloseError aggregates the per-root failures encountered
	// while releasing a workspace's owned path roots.
	WorkspaceCloseError = jcterr.AggregateError
	// CompilerError wraps a failure the compiler provider itself raised.
	CompilerError = jcterr.CompilerError
)
