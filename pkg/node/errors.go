package node

import "errors"

// Tree errors.
var (
	ErrInvalidPath    = errors.New("invalid lwm2m path")
	ErrRootMismatch   = errors.New("path does not start with root path")
	ErrDuplicateID    = errors.New("duplicate node id")
	ErrInvalidNode    = errors.New("invalid node")
	ErrPathMismatch   = errors.New("path does not match node")
	ErrOverlapping    = errors.New("overlapping paths")
	ErrUnexpectedPath = errors.New("unexpected path")
	ErrMissingPath    = errors.New("missing path")
	ErrDuplicatePath  = errors.New("duplicate path")
)
