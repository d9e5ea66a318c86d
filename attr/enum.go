package attr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/go-julabo/protocol"
)

// Variant is one named value of an Enumeration.
type Variant[T ~int] struct {
	Name  string
	Value T
}

// Enumeration is a closed set of named integer values and implements Codec[T].
//
// Encode accepts a T, any Go integer, the decimal form of the integer, or a
// variant name matched case-insensitively. Decode only accepts the decimal
// integer the hardware sends.
type Enumeration[T ~int] struct {
	name     string
	variants []Variant[T]
}

// NewEnumeration builds an enumeration. It panics on duplicate names or values
// since enumerations are declared statically.
func NewEnumeration[T ~int](name string, variants ...Variant[T]) *Enumeration[T] {
	for i, a := range variants {
		for _, b := range variants[i+1:] {
			if strings.EqualFold(a.Name, b.Name) || a.Value == b.Value {
				panic(fmt.Sprintf("attr: enumeration %s: duplicate variant %s/%s", name, a.Name, b.Name))
			}
		}
	}

	return &Enumeration[T]{name: name, variants: variants}
}

// Name returns the enumeration name.
func (e *Enumeration[T]) Name() string { return e.name }

// Variants returns the declared variants in order.
func (e *Enumeration[T]) Variants() []Variant[T] {
	return append([]Variant[T](nil), e.variants...)
}

// String returns the variant name of v, or "<Enumeration>(v)" when undeclared.
func (e *Enumeration[T]) String(v T) string {
	if vr, ok := e.lookup(v); ok {
		return vr.Name
	}

	return fmt.Sprintf("%s(%d)", e.name, int(v))
}

// Parse resolves a variant by case-insensitive name.
func (e *Enumeration[T]) Parse(name string) (T, error) {
	name = strings.TrimSpace(name)
	for _, vr := range e.variants {
		if strings.EqualFold(vr.Name, name) {
			return vr.Value, nil
		}
	}

	return 0, fmt.Errorf("%w: %q is not a %s", protocol.ErrInvalidEncoding, name, e.name)
}

func (e *Enumeration[T]) Decode(text string) (T, error) {
	n, err := parseInt(text)
	if err != nil {
		return 0, err
	}

	vr, ok := e.lookup(T(n))
	if !ok {
		return 0, fmt.Errorf("%w: %d is not a %s", protocol.ErrUnknownVariant, n, e.name)
	}

	return vr.Value, nil
}

func (e *Enumeration[T]) Encode(v any) (string, error) {
	var value T

	switch x := v.(type) {
	case T:
		value = x
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			value = T(n)
			break
		}
		parsed, err := e.Parse(x)
		if err != nil {
			return "", err
		}
		value = parsed
	case float32, float64:
		return "", fmt.Errorf("%w: %v is not a %s", protocol.ErrInvalidEncoding, v, e.name)
	default:
		n, err := toInt(v)
		if err != nil {
			return "", err
		}
		value = T(n)
	}

	if _, ok := e.lookup(value); !ok {
		return "", fmt.Errorf("%w: %d is not a %s", protocol.ErrInvalidEncoding, int(value), e.name)
	}

	return strconv.Itoa(int(value)), nil
}

func (e *Enumeration[T]) lookup(v T) (Variant[T], bool) {
	for _, vr := range e.variants {
		if vr.Value == v {
			return vr, true
		}
	}

	return Variant[T]{}, false
}
