package attr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/go-julabo/protocol"
)

// Codec converts between the wire text of a parameter and its Go value.
//
// Encode accepts any value the codec can coerce (e.g. a float codec takes
// integers and numeric strings too) and fails with protocol.ErrInvalidEncoding
// otherwise. Decode fails with protocol.ErrMalformedReply on unparsable text.
type Codec[T any] interface {
	Decode(text string) (T, error)
	Encode(v any) (string, error)
}

// Predefined codecs.
var (
	Fixed1  Codec[float64] = Fixed{Digits: 1}
	Fixed2  Codec[float64] = Fixed{Digits: 2}
	Integer Codec[int]     = integerCodec{}
	Text    Codec[string]  = textCodec{}
	Flag    Codec[bool]    = flagCodec{}
	// Channel exposes a zero-based wire index as a one-based number.
	Channel Codec[int] = channelCodec{}
)

// Fixed formats numbers with a fixed number of decimals, always using '.'.
type Fixed struct {
	Digits int
}

func (f Fixed) Decode(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", protocol.ErrMalformedReply, text)
	}

	return v, nil
}

func (f Fixed) Encode(v any) (string, error) {
	x, err := toFloat(v)
	if err != nil {
		return "", err
	}

	return strconv.FormatFloat(x, 'f', f.Digits, 64), nil
}

type integerCodec struct{}

func (integerCodec) Decode(text string) (int, error) {
	return parseInt(text)
}

func (integerCodec) Encode(v any) (string, error) {
	n, err := toInt(v)
	if err != nil {
		return "", err
	}

	return strconv.Itoa(n), nil
}

type textCodec struct{}

func (textCodec) Decode(text string) (string, error) {
	return text, nil
}

func (textCodec) Encode(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}

	return "", fmt.Errorf("%w: %v (%T) is not text", protocol.ErrInvalidEncoding, v, v)
}

type flagCodec struct{}

func (flagCodec) Decode(text string) (bool, error) {
	return strings.TrimSpace(text) == "1", nil
}

func (flagCodec) Encode(v any) (string, error) {
	if b, ok := v.(bool); ok {
		if b {
			return "1", nil
		}
		return "0", nil
	}

	n, err := toInt(v)
	if err != nil {
		return "", err
	}
	if n != 0 && n != 1 {
		return "", fmt.Errorf("%w: %d is not a flag", protocol.ErrInvalidEncoding, n)
	}

	return strconv.Itoa(n), nil
}

type channelCodec struct{}

func (channelCodec) Decode(text string) (int, error) {
	n, err := parseInt(text)
	if err != nil {
		return 0, err
	}

	return n + 1, nil
}

func (channelCodec) Encode(v any) (string, error) {
	n, err := toInt(v)
	if err != nil {
		return "", err
	}

	return strconv.Itoa(n - 1), nil
}

func parseInt(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", protocol.ErrMalformedReply, text)
	}

	return n, nil
}

func toFloat(v any) (float64, error) {
	var x float64

	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, _ := toInt(n)
		x = float64(i)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", protocol.ErrInvalidEncoding, n)
		}
		x = f
	default:
		return 0, fmt.Errorf("%w: %v (%T) is not a number", protocol.ErrInvalidEncoding, v, v)
	}

	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", protocol.ErrInvalidEncoding, x)
	}

	return x, nil
}

// toInt coerces integers, floats (truncated) and decimal strings into an int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		return toInt(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %v is not finite", protocol.ErrInvalidEncoding, n)
		}
		return int(math.Trunc(n)), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", protocol.ErrInvalidEncoding, n)
		}
		return i, nil
	}

	return 0, fmt.Errorf("%w: %v (%T) is not an integer", protocol.ErrInvalidEncoding, v, v)
}
