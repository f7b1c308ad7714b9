// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Table errors.
var (
	// ErrTableEmpty indicates the syscall table has no active entries.
	ErrTableEmpty = &FuzzError{
		Kind:   ErrNotFound,
		Detail: "no active entries for this ABI",
	}

	// ErrEntryNotFound indicates the requested entry index does not exist.
	ErrEntryNotFound = &FuzzError{
		Kind:   ErrNotFound,
		Detail: "syscall entry not found",
	}

	// ErrEntryExists indicates an entry with this name is already registered.
	ErrEntryExists = &FuzzError{
		Kind:   ErrAlreadyExists,
		Detail: "syscall entry already registered",
	}

	// ErrEntryInactive indicates a picked entry has zero active_number (invariant violation).
	ErrEntryInactive = &FuzzError{
		Kind:   ErrInternal,
		Detail: "picked entry has zero active_number",
	}

	// ErrInvalidArgCount indicates an entry declares an out-of-range argument count.
	ErrInvalidArgCount = &FuzzError{
		Kind:   ErrInvalidConfig,
		Detail: "argument count must be between 0 and 6",
	}
)

// Shared-memory errors.
var (
	// ErrRegionTooSmall indicates the requested region size cannot hold the header/records.
	ErrRegionTooSmall = &FuzzError{
		Kind:   ErrInvalidConfig,
		Detail: "shared region too small for header and records",
	}

	// ErrMmapFailed indicates the mmap syscall failed.
	ErrMmapFailed = &FuzzError{
		Kind:   ErrSharedMemory,
		Detail: "mmap failed",
	}

	// ErrMemfdFailed indicates memfd_create failed.
	ErrMemfdFailed = &FuzzError{
		Kind:   ErrSharedMemory,
		Detail: "memfd_create failed",
	}

	// ErrSlotOutOfRange indicates a requested slot index is out of bounds.
	ErrSlotOutOfRange = &FuzzError{
		Kind:   ErrInvalidState,
		Detail: "slot index out of range",
	}

	// ErrRegionClosed indicates an operation was attempted on an unmapped region.
	ErrRegionClosed = &FuzzError{
		Kind:   ErrInvalidState,
		Detail: "shared region already closed",
	}
)

// Configuration errors.
var (
	// ErrInvalidChildCount indicates an invalid child-count configuration value.
	ErrInvalidChildCount = &FuzzError{
		Kind:   ErrInvalidConfig,
		Detail: "children must be at least 1",
	}

	// ErrNoEnabledCalls indicates the enabled-call filter matched nothing.
	ErrNoEnabledCalls = &FuzzError{
		Kind:   ErrInvalidConfig,
		Detail: "no enabled syscalls matched the configured filter",
	}

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = &FuzzError{
		Kind:   ErrNotFound,
		Detail: "configuration file not found",
	}
)

// Invoke errors.
var (
	// ErrInvokeUnsupportedABI indicates the secondary ABI was requested where unsupported.
	ErrInvokeUnsupportedABI = &FuzzError{
		Kind:   ErrInvoke,
		Detail: "secondary ABI not supported on this platform",
	}
)

// Argument-generator errors.
var (
	// ErrEmptyValueList indicates a bitflag-set or enumerated-op generator was given an empty list.
	ErrEmptyValueList = &FuzzError{
		Kind:   ErrArgGen,
		Detail: "value list must not be empty",
	}

	// ErrResourceExhausted indicates an argument generator's private pool (fd/path) is exhausted.
	ErrResourceExhausted = &FuzzError{
		Kind:   ErrResource,
		Detail: "argument generator resource pool exhausted",
	}
)

// Supervisor/process errors.
var (
	// ErrChildSpawn indicates a child process failed to start.
	ErrChildSpawn = &FuzzError{
		Kind:   ErrInternal,
		Detail: "failed to spawn child",
	}

	// ErrChildNotFound indicates the referenced child slot has no running process.
	ErrChildNotFound = &FuzzError{
		Kind:   ErrNotFound,
		Detail: "child process not found",
	}

	// ErrSignalFailed indicates a signal delivery error.
	ErrSignalFailed = &FuzzError{
		Kind:   ErrInternal,
		Detail: "failed to send signal",
	}
)
