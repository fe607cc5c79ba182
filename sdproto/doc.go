// Package sdproto contains the wire-level building blocks of the SD SPI
// protocol: command indices, frame encoding, response decoding, CRC
// codecs, and register layouts. It has no notion of a transport or a
// clock and performs no I/O; it exists so that both the driver
// (package sdspi) and offline tooling (cmd/sdtrace) can share one
// definition of the protocol.
package sdproto
