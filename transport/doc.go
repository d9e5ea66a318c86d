// Package transport provides byte channels to Julabo baths.
//
// Two implementations satisfy [protocol.Transport]:
//
//   - [Serial]: a local serial line (9600 baud, 7 data bits, even parity,
//     1 stop bit) opened with github.com/tarm/serial. Blocking.
//   - [TCP]: a raw TCP socket, typically a serial-to-ethernet converter.
//     Cooperative: deadlines and cancellation follow the context.
//
// [ForURL] picks one from a URL:
//
//	/dev/ttyUSB0, serial:///dev/ttyUSB0  -> Serial
//	tcp://host:port, serial-tcp://host:port -> TCP
package transport
