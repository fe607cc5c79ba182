// Command sdcheck runs the SD SPI initialization sequence against a
// card, reports its identity and capacity, and optionally runs a
// read/write smoke test against one scratch block.
//
// It always exercises a virtual in-memory card (vcard), so the tool is
// useful without hardware attached; no flag or argument selects a
// hardware transport.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/soypat/sdspi"
	"github.com/soypat/sdspi/telemetry"
	"github.com/soypat/sdspi/vcard"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	smoke := flag.Bool("smoke", true, "run a read/write smoke test on the last block")
	mqttBroker := flag.String("mqtt-broker", "", "if set, publish init results to this MQTT broker (host:port)")
	mqttTopic := flag.String("mqtt-topic", "sdspi/status", "MQTT topic for -mqtt-broker")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *smoke, *mqttBroker, *mqttTopic); err != nil {
		log.Fatal(err.Error())
	}
}

func run(logger *slog.Logger, smoke bool, mqttBroker, mqttTopic string) error {
	var pub *telemetry.Publisher
	if mqttBroker != "" {
		p, err := telemetry.Dial(mqttBroker, telemetry.Config{
			ClientID: "sdcheck",
			Topic:    mqttTopic,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("mqtt dial: %w", err)
		}
		defer p.Close()
		pub = p
	}

	card, err := vcard.NewMem(8192, true)
	if err != nil {
		return err
	}

	dev := sdspi.New(card, sdspi.NewSystemClock(), sdspi.WithLogger(logger))
	if err := dev.Begin(); err != nil {
		if pub != nil {
			pub.OperationFailed("begin", err)
		}
		return fmt.Errorf("init: %w", err)
	}
	fmt.Printf("card type: %s\n", dev.CardType())

	csd, err := dev.ReadCSD()
	if err != nil {
		return fmt.Errorf("read csd: %w", err)
	}
	fmt.Printf("capacity: %d blocks (%d bytes)\n", csd.BlockCount(), csd.CapacityBytes())
	if pub != nil {
		pub.CardInitialized(dev.CardType().String(), csd.BlockCount())
	}

	cid, err := dev.ReadCID()
	if err != nil {
		return fmt.Errorf("read cid: %w", err)
	}
	fmt.Printf("manufacturer: %#02x  made: %04d-%02d\n", cid.ManufacturerID(), cid.ManufactureYear(), cid.ManufactureMonth())

	if !smoke {
		return nil
	}

	lba := csd.BlockCount() - 1
	var want, got [512]byte
	for i := range want {
		want[i] = byte(i)
	}
	if err := dev.WriteBlock(lba, want[:]); err != nil {
		return fmt.Errorf("smoke write: %w", err)
	}
	if err := dev.ReadBlock(lba, got[:]); err != nil {
		return fmt.Errorf("smoke read: %w", err)
	}
	if got != want {
		return fmt.Errorf("smoke test: block %d readback mismatch", lba)
	}
	fmt.Printf("smoke test ok: block %d round-tripped\n", lba)
	return nil
}
