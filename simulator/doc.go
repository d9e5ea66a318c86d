// Package simulator emulates Julabo circulators at the wire level.
//
// A Bath holds the register table of one device and answers request lines
// the way the hardware does. It can be driven in-process through
// NewTransport or served over TCP with Server, which makes it usable both
// in tests and as a stand-in for a real bath behind a serial-to-ethernet
// converter:
//
//	bath, _ := simulator.NewBath("cf31", simulator.JulaboCF)
//	srv := simulator.NewServer(bath, ":5050")
//	if err := srv.Start(ctx); err != nil {
//		...
//	}
//	defer srv.Close()
package simulator
