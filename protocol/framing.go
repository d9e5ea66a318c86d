package protocol

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

const (
	// CommandTerminator ends every request frame.
	CommandTerminator byte = '\r'
	// ReplyTerminator ends every reply frame (replies end with CR LF).
	ReplyTerminator byte = '\n'

	xon  byte = 0x11
	xoff byte = 0x13
)

// Encode frames a command, appending a carriage return unless already present.
func Encode(command string) []byte {
	data := make([]byte, 0, len(command)+1)
	data = append(data, command...)
	if len(data) == 0 || data[len(data)-1] != CommandTerminator {
		data = append(data, CommandTerminator)
	}

	return data
}

// Decode turns a raw reply into text.
//
// Software flow-control bytes (XON/XOFF) leaking into the payload are removed
// and the surrounding CR/LF is trimmed.
func Decode(reply []byte) (string, error) {
	out := make([]byte, 0, len(reply))
	for _, b := range reply {
		if b == xon || b == xoff {
			continue
		}
		out = append(out, b)
	}
	out = bytes.TrimSpace(out)

	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: reply %q is not text", ErrMalformedReply, reply)
	}

	return string(out), nil
}
