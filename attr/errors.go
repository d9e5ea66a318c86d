package attr

import "errors"

var (
	ErrNotReadable   = errors.New("julabo: attribute is not readable")
	ErrNotWritable   = errors.New("julabo: attribute is not writable")
	ErrNotInvokable  = errors.New("julabo: attribute is not a command")
	ErrNoCommand     = errors.New("julabo: attribute needs a read or a write command")
	ErrNoCodec       = errors.New("julabo: attribute codec is nil")
	ErrEmptyName     = errors.New("julabo: attribute name is empty")
	ErrDuplicateName = errors.New("julabo: duplicate attribute name")
)
