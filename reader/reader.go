// Package reader implements the Frame Reader collaborator from §4.A: it
// exposes a uniform frame iterator over whichever on-disk capture format a
// file turns out to be, plus the File Ordering component (§4.B) that
// expands a file spec, sniffs each file's format, and sorts the batch by
// first-frame tick.
//
// The concrete byte layout of each capture format is treated the way
// spec.md frames it: an external collaborator specified only by interface.
// Classic pcap and a minimal pcap-ng subset are implemented here as
// reference readers so the engine is exercisable end to end; NetMon and ETL
// are left as stubs that satisfy FrameReader but report
// ErrReaderNotImplemented from ReadFrame.
package reader

import (
	"github.com/pkg/errors"
)

// LinkType mirrors the link-layer type values capture files carry. Only the
// three values §4.C dispatches on are named; everything else is accepted
// and passed through as "other".
type LinkType uint16

const (
	LinkEthernet LinkType = 1
	LinkWiFi     LinkType = 6
	LinkNetEvent LinkType = 0xFFE0
)

// Format identifies which of the detected on-disk capture formats produced
// a file's frames.
type Format int

const (
	FormatUnknown Format = iota
	FormatNetMon
	FormatPCAP
	FormatPCAPNG
	FormatETL
)

func (f Format) String() string {
	switch f {
	case FormatNetMon:
		return "netmon"
	case FormatPCAP:
		return "pcap"
	case FormatPCAPNG:
		return "pcap-ng"
	case FormatETL:
		return "etl"
	default:
		return "unknown"
	}
}

// RawFrame is the uniform record a FrameReader yields for one captured
// frame: exactly the six fields spec.md §6 requires of the collaborator.
type RawFrame struct {
	FrameNumber    uint32
	Tick           int64 // 100ns since 0001-01-01, absolute
	LinkType       LinkType
	FrameLength    uint32
	CapturedLength uint32
	Data           []byte
}

// FrameReader yields frames from one capture file in file order. Close
// releases any file handle the reader opened; it is safe to call Close
// more than once.
type FrameReader interface {
	LinkType() LinkType
	ReadFrame() (RawFrame, error) // io.EOF when exhausted
	Close() error
}

// ErrReaderNotImplemented is returned by ReadFrame on a stub reader whose
// concrete byte layout this tree does not decode.
var ErrReaderNotImplemented = errors.New("reader: format not implemented")

// ErrUnsupportedFormat is returned when a file's leading bytes don't match
// any recognized magic and its extension isn't ".etl".
var ErrUnsupportedFormat = errors.New("reader: unsupported capture format")

// Open constructs the FrameReader appropriate to format, reading frames
// from path.
func Open(path string, format Format) (FrameReader, error) {
	switch format {
	case FormatPCAP:
		return openPCAP(path)
	case FormatPCAPNG:
		return openPCAPNG(path)
	case FormatNetMon:
		return openNetMon(path)
	case FormatETL:
		return openETL(path)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "open %s", path)
	}
}
