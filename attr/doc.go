// Package attr turns declarative parameter tables into typed device accessors.
//
// A descriptor ([Attr]) binds a parameter name to an optional read command
// (IN_xx_nn), an optional write command (OUT_xx_nn) and a [Codec] converting
// between wire text and a Go value:
//
//   - read only: Get queries the read command and decodes the reply.
//   - read/write: Set sends "<write> <encoded value>" in addition.
//   - write only: Invoke sends the write command verbatim (start/stop style
//     commands), Set sends it followed by an encoded value.
//
// Descriptors are immutable and carry no connection state; every call takes
// the [protocol.Engine] to run against, so the same table serves blocking and
// cooperative engines alike. A [Profile] is the ordered set of descriptors a
// hardware family exposes.
package attr
