package reader

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	magicNetMon     uint32 = 0x55424D47
	magicPCAPBE     uint32 = 0xA1B2C3D4
	magicPCAPLE     uint32 = 0xD4C3B2A1
	magicPCAPBENano uint32 = 0xA1B23C4D
	magicPCAPLENano uint32 = 0x4D3CB2A1
	magicPCAPNG     uint32 = 0x0A0D0D0A
)

// DetectFormat sniffs the four-byte leading magic of path (little-endian,
// per §4.B) and falls back to the ".etl" extension when nothing matches.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, errors.Wrapf(err, "detect format: open %s", path)
	}
	defer f.Close()

	var buf [4]byte
	n, err := f.Read(buf[:])
	if n == 4 {
		magic := binary.LittleEndian.Uint32(buf[:])
		switch magic {
		case magicNetMon:
			return FormatNetMon, nil
		case magicPCAPBE, magicPCAPLE, magicPCAPBENano, magicPCAPLENano:
			return FormatPCAP, nil
		case magicPCAPNG:
			return FormatPCAPNG, nil
		}
	}
	if strings.HasSuffix(strings.ToLower(path), ".etl") {
		return FormatETL, nil
	}
	return FormatUnknown, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
}

// pcapByteOrder reports the byte order and timestamp resolution (1 for
// seconds/microseconds, 1000 for nanoseconds) a classic-pcap magic implies.
//
// The magic constants above are the numeric value produced by reading the
// on-disk four bytes as little-endian (see DetectFormat/openPCAP), which is
// the reverse of the byte order the magic itself signals: a file whose
// magic bytes on disk read A1 B2 C3 D4 in file order was written
// big-endian (matching gopcap's checkMagicNum, parse.go), but reading those
// same four bytes little-endian yields the numeric value 0xD4C3B2A1 —
// magicPCAPLE, not magicPCAPBE. So each case below maps to the opposite
// endianness its name suggests.
func pcapByteOrder(magic uint32) (order binary.ByteOrder, nanoResolution bool, ok bool) {
	switch magic {
	case magicPCAPBE:
		return binary.LittleEndian, false, true
	case magicPCAPLE:
		return binary.BigEndian, false, true
	case magicPCAPBENano:
		return binary.LittleEndian, true, true
	case magicPCAPLENano:
		return binary.BigEndian, true, true
	default:
		return nil, false, false
	}
}
