// Command sdimage creates a fixed-size virtual SD card image file, runs
// the driver's Begin and ReadCSD against it once through sdspi's
// Transport interface as a sanity check, prints the card type and
// capacity, and exits.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/spf13/afero"

	"github.com/soypat/sdspi"
	"github.com/soypat/sdspi/vcard"
)

func main() {
	path := flag.String("path", "card.img", "backing file for the virtual card image")
	blocks := flag.Uint("blocks", 8192, "number of 512-byte blocks in the image")
	sdhc := flag.Bool("sdhc", true, "report the image as a high-capacity (block-addressed) card")
	flag.Parse()

	if err := run(*path, uint32(*blocks), *sdhc); err != nil {
		log.Fatal(err.Error())
	}
}

func run(path string, blocks uint32, sdhc bool) error {
	fs := afero.NewOsFs()
	card, err := vcard.NewFile(fs, path, blocks, sdhc)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	dev := sdspi.New(card, sdspi.NewSystemClock())
	if err := dev.Begin(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	csd, err := dev.ReadCSD()
	if err != nil {
		return fmt.Errorf("read csd: %w", err)
	}
	fmt.Printf("created %s: %s, %d blocks (%d bytes)\n", path, dev.CardType(), csd.BlockCount(), csd.CapacityBytes())
	return nil
}
