package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for caller-side branching. It is not a
// substitute for the error message — it is the thing a caller
// switches on to decide whether to retry, escalate, or ignore.
type Kind int

const (
	// Unknown is the catch-all kind; the original error is preserved,
	// never masked.
	Unknown Kind = iota
	// Configuration covers invalid or missing config fields, unknown
	// enum values, and invalid patterns. Fatal at startup.
	Configuration
	// Execution covers a hook's logic failing or panicking.
	Execution
	// Resource covers capacity exhaustion: full queues, semaphore
	// starvation. Typically transient.
	Resource
	// Timeout covers an operation that exceeded its deadline.
	Timeout
	// Dependency covers a missing or unhealthy collaborator (runtime
	// absent, database unreachable).
	Dependency
	// Permission covers OS-level access denial.
	Permission
	// Network covers transport failures on notification channels.
	Network
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Execution:
		return "execution"
	case Resource:
		return "resource"
	case Timeout:
		return "timeout"
	case Dependency:
		return "dependency"
	case Permission:
		return "permission"
	case Network:
		return "network"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a new Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err, walking the unwrap chain. It
// returns Unknown if err is nil or carries no Kind.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err (or anything it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// QueueFull is a sentinel Resource error returned by a bounded
// publish/enqueue operation when its buffer is saturated.
var QueueFull = New(Resource, "publish", errors.New("queue full"))

// DuplicateID is a sentinel Configuration error returned when
// registering an id that already exists.
var DuplicateID = New(Configuration, "register", errors.New("duplicate id"))

// UnknownHook is a sentinel Configuration error returned when a
// dependency references a hook id that isn't registered.
var UnknownHook = New(Configuration, "add_dep", errors.New("unknown hook"))

// CycleWouldForm is a sentinel Configuration error returned when
// adding a dependency edge would introduce a cycle.
var CycleWouldForm = New(Configuration, "add_dep", errors.New("cycle would form"))

// CycleDetected is a sentinel Execution error returned by
// execution-order resolution when the requested subset contains a
// cycle that should have been prevented at registration time.
var CycleDetected = New(Execution, "execution_order", errors.New("cycle detected"))
