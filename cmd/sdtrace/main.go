// Command sdtrace decodes a Saleae logic analyzer capture of an SD SPI
// bus (CS, CLK, MOSI, MISO channels exported as separate digital binary
// files) into a human-readable command trace, for debugging card
// initialization and I/O failures offline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"

	"github.com/soypat/sdspi/sdproto"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "sdtrace - decode a Saleae capture of an SD SPI bus into a command trace.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	fclk := flag.String("f-clk", "digital_0.bin", "Input filename: SPI CLK data.")
	fcs := flag.String("f-cs", "digital_1.bin", "Input filename: SPI CS data.")
	fmosi := flag.String("f-mosi", "digital_2.bin", "Input filename: SPI MOSI data.")
	fmiso := flag.String("f-miso", "digital_3.bin", "Input filename: SPI MISO data.")
	output := flag.String("o", "sdtrace.txt", "Output filename of the decoded command trace.")
	flag.Parse()

	if err := run(*fclk, *fcs, *fmosi, *fmiso, *output); err != nil {
		log.Fatal(err.Error())
	}
}

func run(fclk, fcs, fmosi, fmiso, output string) error {
	clk, err := opendigital(fclk)
	if err != nil {
		return err
	}
	cs, err := opendigital(fcs)
	if err != nil {
		return err
	}
	mosi, err := opendigital(fmosi)
	if err != nil {
		return err
	}
	miso, err := opendigital(fmiso)
	if err != nil {
		return err
	}

	spi := analyzers.SPI{}
	txs, _ := spi.Scan(clk, cs, mosi, miso)

	fp, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fp.Close()

	for i, tx := range txs {
		line := decodeTransaction(tx.SDO)
		fmt.Fprintf(fp, "%4d t=%.6f %s\n", i, tx.StartTime(), line)
	}
	return nil
}

// decodeTransaction renders a captured byte sequence as an SD command
// frame when it looks like one (6 bytes, top two bits of the first byte
// set to 0b01), and as a raw hex dump otherwise, since a bus capture
// mixes command frames with data-phase bytes indistinguishably.
func decodeTransaction(data []byte) string {
	if len(data) == 6 && data[0]&0xC0 == 0x40 {
		cmd := sdproto.Cmd(data[0] &^ 0x40)
		arg := uint32(data[1])<<24 | uint32(data[2])<<16 | uint32(data[3])<<8 | uint32(data[4])
		return fmt.Sprintf("%-6s arg=%#08x crc=%#02x", cmd.String(), arg, data[5])
	}
	if len(data) == 1 {
		switch data[0] {
		case byte(sdproto.StartBlock):
			return "token start-block"
		case byte(sdproto.StartMultiWrite):
			return "token start-multi-write"
		case byte(sdproto.StopTran):
			return "token stop-tran"
		}
	}
	return fmt.Sprintf("raw %x", data)
}

func opendigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return saleae.ReadDigitalFile(fp)
}
