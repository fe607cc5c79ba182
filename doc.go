// Package sdspi is a host-side driver for SD and SDHC memory cards
// accessed over SPI. It negotiates the card's generation and capacity
// class during Begin, then exposes a 512-byte block device plus readers
// for the card's identification and capability registers.
//
// The driver is transport-agnostic: callers supply a Transport (the
// byte-serial SPI link, with chip-select) and a Clock (a monotonic
// millisecond source used for timeouts). Concrete transports live under
// ./transport; a scripted mock lives under ./internal/mock for tests, and
// a fully simulated card lives under ./vcard.
package sdspi
