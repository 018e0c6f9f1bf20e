package rpi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// RPi gives access to the Raspberry Pi's peripherals: the physical register
// blocks via /dev/mem and the VideoCore firmware via the property mailbox.
type RPi struct {
	mbox *os.File
	hw   *hw
}

func NewRPi() (*RPi, error) {
	hw, err := detectHardware()
	if err != nil {
		return nil, fmt.Errorf("couldn't detect RPi hardware: %v", err)
	}
	rp := RPi{
		hw: hw,
	}
	err = rp.mboxOpen()
	if err != nil {
		return nil, fmt.Errorf("couldn't open mailbox: %v", err)
	}
	return &rp, nil
}

func (rp *RPi) Close() error {
	return rp.mboxClose()
}

// Name reports which SoC/board we detected.
func (rp *RPi) Name() string {
	return rp.hw.name
}

// OscFreq reports the board's crystal frequency.
func (rp *RPi) OscFreq() uint64 {
	if rp.hw.hwType == RPI_HWVER_TYPE_PI4 {
		return OSC_FREQ_PI4
	}
	return OSC_FREQ
}

type hw struct {
	hwType     int
	periphBase uintptr
	vcBase     uintptr
	name       string
}

const (
	RPI_HWVER_TYPE_UNKNOWN = iota
	RPI_HWVER_TYPE_PI1
	RPI_HWVER_TYPE_PI2
	RPI_HWVER_TYPE_PI4

	PERIPH_BASE_RPI  = 0x20000000
	PERIPH_BASE_RPI2 = 0x3f000000
	PERIPH_BASE_RPI4 = 0xfe000000

	VIDEOCORE_BASE_RPI  = 0x40000000
	VIDEOCORE_BASE_RPI2 = 0xc0000000

	PAGE_SIZE = 4096 // Theoretically, we could get this via whatever getconf does

	CM_OFFSET = uintptr(0x00101000) // clock manager (CPRMAN) register block

	OSC_FREQ     = 19200000 // crystal frequency
	OSC_FREQ_PI4 = 54000000 // Pi 4 crystal frequency
)

// Detect which version of a Raspberry Pi we're running on
// The original rpihw.c does this in two different ways, one for ARM64 only.
// My non-64-bit RPis also support the ARM64 way, though, so this implements just that (easier) way.
func detectHardware() (*hw, error) {
	f, err := os.Open("/proc/device-tree/system/linux,revision")
	if err != nil {
		return nil, fmt.Errorf("couldn't open linux revision file: %v", err)
	}
	b := make([]byte, 4)
	n, err := f.Read(b)
	f.Close() // Ignore error
	if err != nil {
		return nil, fmt.Errorf("couldn't read revision: %v", err)
	}
	if n != 4 {
		return nil, fmt.Errorf("revision file got %d instead of 4 bytes", n)
	}
	r := bytes.NewReader(b)
	var ver uint32
	err = binary.Read(r, binary.BigEndian, &ver)
	if err != nil {
		return nil, fmt.Errorf("somehow couldn't convert 4 bytes to a uint32: %v", err)
	}
	// New-style revision codes (bit 23 set) encode the SoC in bits 12-15,
	// which is all we need to find the peripheral window. Old-style codes
	// name the board directly.
	if ver&(1<<23) != 0 {
		soc := (ver >> 12) & 0xf
		if rp, ok := rasPiSoCs[soc]; ok {
			return &rp, nil
		}
		return nil, fmt.Errorf("couldn't identify SoC %X in revision %X", soc, ver)
	}
	if rp, ok := rasPiOldRevs[ver]; ok {
		return &rp, nil
	}
	return nil, fmt.Errorf("couldn't identify hardware revision %X", ver)
}

var rasPiSoCs = map[uint32]hw{
	0: {
		hwType:     RPI_HWVER_TYPE_PI1,
		periphBase: PERIPH_BASE_RPI,
		vcBase:     VIDEOCORE_BASE_RPI,
		name:       "BCM2835",
	},
	1: {
		hwType:     RPI_HWVER_TYPE_PI2,
		periphBase: PERIPH_BASE_RPI2,
		vcBase:     VIDEOCORE_BASE_RPI2,
		name:       "BCM2836",
	},
	2: {
		hwType:     RPI_HWVER_TYPE_PI2,
		periphBase: PERIPH_BASE_RPI2,
		vcBase:     VIDEOCORE_BASE_RPI2,
		name:       "BCM2837",
	},
	3: {
		hwType:     RPI_HWVER_TYPE_PI4,
		periphBase: PERIPH_BASE_RPI4,
		vcBase:     VIDEOCORE_BASE_RPI2,
		name:       "BCM2711",
	},
}

// Boards that predate the self-describing revision codes.
var rasPiOldRevs = map[uint32]hw{
	0x02: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x03: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x04: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x05: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x06: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x07: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model A"},
	0x08: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model A"},
	0x09: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model A"},
	0x0d: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x0e: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x0f: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B"},
	0x10: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B+"},
	0x11: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Compute Module 1"},
	0x12: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model A+"},
	0x13: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model B+"},
	0x14: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Compute Module 1"},
	0x15: {RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, VIDEOCORE_BASE_RPI, "Model A+"},
}

// MapPeriph opens /dev/mem and maps the peripheral register block at the
// given offset into our address space. Since the mapping has to start at a
// page boundary, the physical address is rounded down to the nearest page
// boundary; the returned offset (=physAddr%PAGE_SIZE) is where the block
// actually starts inside the mapping.
func (rp *RPi) MapPeriph(offset uintptr, size int) (mmap.MMap, uintptr, error) {
	physAddr := rp.hw.periphBase + offset
	f, err := os.OpenFile(MEM_FILE, os.O_RDWR|os.O_SYNC, os.ModePerm)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't open %s: %v", MEM_FILE, err)
	}
	return mapPhys(f, physAddr, size)
}

// mapPhys maps size bytes of f around physAddr. The mapping survives the
// file, so f is closed before returning, whether or not the mapping worked.
func mapPhys(f *os.File, physAddr uintptr, size int) (mmap.MMap, uintptr, error) {
	defer f.Close() // Ignore error

	pagemask := ^uintptr(PAGE_SIZE - 1)
	mapAddr := physAddr & pagemask
	size += int(physAddr - mapAddr)
	mm, err := mmap.MapRegion(f, size, mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't map region (%v, %v): %v", physAddr, size, err)
	}
	return mm, physAddr & (PAGE_SIZE - 1), nil
}
