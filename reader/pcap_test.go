package reader

import (
	"encoding/binary"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePCAPFile(t *testing.T, order binary.ByteOrder, nanos bool, linkType uint32, frames [][]byte, tsSeconds, tsFraction []uint32) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "*.pcap")
	require.NoError(t, err)
	defer f.Close()

	// Real on-disk magic byte sequences, written in file order exactly as a
	// genuine capture tool would (per gopcap's checkMagicNum, parse.go:11-12,
	// and the nanosecond-resolution equivalents) — not derived from this
	// package's internal magicPCAP* constants, so an inverted byte-order
	// mapping in pcapByteOrder can't mask itself here.
	var magicBytes [4]byte
	switch {
	case order == binary.BigEndian && !nanos:
		magicBytes = [4]byte{0xA1, 0xB2, 0xC3, 0xD4}
	case order == binary.LittleEndian && !nanos:
		magicBytes = [4]byte{0xD4, 0xC3, 0xB2, 0xA1}
	case order == binary.BigEndian && nanos:
		magicBytes = [4]byte{0xA1, 0xB2, 0x3C, 0x4D}
	case order == binary.LittleEndian && nanos:
		magicBytes = [4]byte{0x4D, 0x3C, 0xB2, 0xA1}
	}
	_, err = f.Write(magicBytes[:])
	require.NoError(t, err)

	hdr := struct {
		MajorVersion uint16
		MinorVersion uint16
		TZCorrection int32
		SigFigs      uint32
		MaxLen       uint32
		LinkType     uint32
	}{2, 4, 0, 0, 65535, linkType}
	require.NoError(t, binary.Write(f, order, &hdr))

	for i, data := range frames {
		pkHdr := struct {
			TSSeconds  uint32
			TSFraction uint32
			InclLen    uint32
			OrigLen    uint32
		}{tsSeconds[i], tsFraction[i], uint32(len(data)), uint32(len(data))}
		require.NoError(t, binary.Write(f, order, &pkHdr))
		_, err := f.Write(data)
		require.NoError(t, err)
	}

	return f.Name()
}

func TestPCAPReaderReadsFramesInOrder(t *testing.T) {
	r := require.New(t)

	path := writePCAPFile(t, binary.LittleEndian, false, 1,
		[][]byte{{1, 2, 3}, {4, 5, 6, 7}},
		[]uint32{100, 200}, []uint32{500000, 750000})

	fr, err := openPCAP(path)
	r.NoError(err)
	defer fr.Close()

	r.Equal(LinkEthernet, fr.LinkType())

	first, err := fr.ReadFrame()
	r.NoError(err)
	r.Equal([]byte{1, 2, 3}, first.Data)
	r.EqualValues(1, first.FrameNumber)

	second, err := fr.ReadFrame()
	r.NoError(err)
	r.Equal([]byte{4, 5, 6, 7}, second.Data)
	r.Greater(second.Tick, first.Tick)

	_, err = fr.ReadFrame()
	r.ErrorIs(err, io.EOF)
}

func TestPCAPReaderRejectsBadMagic(t *testing.T) {
	r := require.New(t)

	f, err := os.CreateTemp(t.TempDir(), "*.pcap")
	r.NoError(err)
	_, err = f.Write([]byte{0x00, 0x00, 0x00, 0x00})
	r.NoError(err)
	f.Close()

	_, err = openPCAP(f.Name())
	r.Error(err)
}

func TestPCAPReaderHandlesBigEndianNanosecondVariant(t *testing.T) {
	r := require.New(t)

	path := writePCAPFile(t, binary.BigEndian, true, 1,
		[][]byte{{9, 9}},
		[]uint32{1000}, []uint32{123456789})

	fr, err := openPCAP(path)
	r.NoError(err)
	defer fr.Close()

	frame, err := fr.ReadFrame()
	r.NoError(err)
	r.Equal(UnixEpochTicks+1000*TicksPerSecond+123456789/100, frame.Tick)
}
