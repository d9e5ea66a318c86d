package attr

import (
	"context"
	"fmt"

	"github.com/arloliu/go-julabo/protocol"
)

// Kind classifies an attribute by the commands it carries.
type Kind int

const (
	ReadOnly Kind = iota
	ReadWrite
	WriteOnly
)

func (k Kind) String() string {
	switch k {
	case ReadOnly:
		return "ro"
	case ReadWrite:
		return "rw"
	case WriteOnly:
		return "wo"
	default:
		return "unknown"
	}
}

// Attribute is the type-erased view of an Attr, used by profiles and the
// device façade to resolve parameters by name.
type Attribute interface {
	Name() string
	Kind() Kind
	ReadCommand() string
	WriteCommand() string
	// Load reads the parameter and returns its decoded value.
	Load(ctx context.Context, e protocol.Engine) (any, error)
	// Store encodes v and writes it.
	Store(ctx context.Context, e protocol.Engine, v any) error
	// Invoke sends the write command without a value.
	Invoke(ctx context.Context, e protocol.Engine) error
}

// Attr is an immutable descriptor of one device parameter with values of type T.
type Attr[T any] struct {
	name  string
	read  string
	write string
	codec Codec[T]
}

var _ Attribute = (*Attr[int])(nil)

// New creates a descriptor. At least one of read and write must be set.
func New[T any](name, read, write string, codec Codec[T]) (*Attr[T], error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if read == "" && write == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCommand, name)
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, name)
	}

	return &Attr[T]{name: name, read: read, write: write, codec: codec}, nil
}

// Must panics if err is not nil. Intended for static descriptor tables.
func Must[T any](a *Attr[T], err error) *Attr[T] {
	if err != nil {
		panic(err)
	}

	return a
}

func (a *Attr[T]) Name() string         { return a.name }
func (a *Attr[T]) ReadCommand() string  { return a.read }
func (a *Attr[T]) WriteCommand() string { return a.write }
func (a *Attr[T]) Codec() Codec[T]      { return a.codec }

func (a *Attr[T]) Kind() Kind {
	switch {
	case a.read == "":
		return WriteOnly
	case a.write == "":
		return ReadOnly
	default:
		return ReadWrite
	}
}

// Get queries the read command and decodes the reply.
func (a *Attr[T]) Get(ctx context.Context, e protocol.Engine) (T, error) {
	var zero T
	if a.read == "" {
		return zero, fmt.Errorf("%w: %s", ErrNotReadable, a.name)
	}

	reply, err := e.Query(ctx, a.read)
	if err != nil {
		return zero, err
	}

	return a.codec.Decode(reply)
}

// Set sends "<write command> <encoded v>".
func (a *Attr[T]) Set(ctx context.Context, e protocol.Engine, v any) error {
	if a.write == "" {
		return fmt.Errorf("%w: %s", ErrNotWritable, a.name)
	}

	s, err := a.codec.Encode(v)
	if err != nil {
		return err
	}

	return e.Send(ctx, a.write+" "+s)
}

// Invoke sends the write command verbatim. Only write-only attributes can be invoked.
func (a *Attr[T]) Invoke(ctx context.Context, e protocol.Engine) error {
	if a.Kind() != WriteOnly {
		return fmt.Errorf("%w: %s", ErrNotInvokable, a.name)
	}

	return e.Send(ctx, a.write)
}

func (a *Attr[T]) Load(ctx context.Context, e protocol.Engine) (any, error) {
	v, err := a.Get(ctx, e)
	if err != nil {
		return nil, err
	}

	return v, nil
}

func (a *Attr[T]) Store(ctx context.Context, e protocol.Engine, v any) error {
	return a.Set(ctx, e, v)
}

// Float1 declares a number transmitted with one decimal.
func Float1(name, read, write string) *Attr[float64] {
	return Must(New(name, read, write, Fixed1))
}

// Float2 declares a number transmitted with two decimals.
func Float2(name, read, write string) *Attr[float64] {
	return Must(New(name, read, write, Fixed2))
}

// Int declares an integer parameter.
func Int(name, read, write string) *Attr[int] {
	return Must(New(name, read, write, Integer))
}

// String declares a read-only text parameter.
func String(name, read string) *Attr[string] {
	return Must(New(name, read, "", Text))
}

// Bool declares a read-only "0"/"1" parameter.
func Bool(name, read string) *Attr[bool] {
	return Must(New(name, read, "", Flag))
}

// Enum declares a parameter whose values belong to enum.
func Enum[T ~int](name, read, write string, enum *Enumeration[T]) *Attr[T] {
	return Must(New[T](name, read, write, enum))
}

// Command declares a write-only command such as "OUT_MODE_05 1".
func Command(name, write string) *Attr[string] {
	return Must(New(name, "", write, Text))
}
