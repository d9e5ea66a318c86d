// Package protocol implements the Julabo serial protocol engine.
//
// The protocol is ASCII, line oriented and half-duplex: the host sends a
// CR-terminated command and, for queries, the bath answers with a single
// CR/LF-terminated line. The device never emits unsolicited bytes.
//
// # Timing
//
// The hardware needs idle time between requests (CF31 manual, "Important
// times for a command transmission"):
//
//   - 250ms after a command (write without reply)
//   - 10ms after a query (write then read)
//
// Both delays feed a single floor: before any operation the engine waits until
// max(lastQuery+QueryLatency, lastCommand+CommandLatency). A failed write still
// moves the floor since the bath may have received part of the frame.
//
// # Execution models
//
// A Transport reports whether it is Blocking (e.g. a local serial line) or
// Cooperative (context aware, e.g. TCP). [New] picks the matching engine once:
//
//   - [BlockingEngine] waits with a plain sleep and serializes queries with a sync.Mutex.
//   - [CooperativeEngine] waits on a pooled timer and acquires a channel semaphore,
//     both abortable through the context.
//
// Framing, timing, draining and reply decoding are shared by both engines.
//
// # Serialization
//
// Queries are mutually exclusive: the second query's write is never sent
// before the first query's reply has been read. The back-pressure wait and the
// draining of stale input happen inside the locked section so that the timing
// floor is evaluated against the latest completed query. Commands do not take
// the lock unless [WithSerializedCommands] is set.
package protocol
