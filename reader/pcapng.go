package reader

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

const (
	blockSectionHeader        uint32 = 0x0A0D0D0A
	blockInterfaceDescription uint32 = 0x00000001
	blockEnhancedPacket       uint32 = 0x00000006
	byteOrderMagic            uint32 = 0x1A2B3C4D

	optionEndOfOpt  uint16 = 0
	optionIfTSResol uint16 = 9
)

// pcapngReader decodes a minimal pcap-ng subset: one Section Header Block,
// one or more Interface Description Blocks, and Enhanced Packet Blocks.
// Other block types (Name Resolution, Interface Statistics, ...) are
// skipped by their declared length, not interpreted — this engine only
// needs link type, per-frame timestamp, and raw bytes.
type pcapngReader struct {
	f     *os.File
	order binary.ByteOrder

	// interfaces indexed by Interface Description Block order of
	// appearance, as EnhancedPacketBlock.InterfaceID references them.
	interfaces []ngInterface
	frameNo    uint32
}

type ngInterface struct {
	linkType   LinkType
	tsResolPow uint8 // timestamp units are 10^-tsResolPow seconds
}

func openPCAPNG(path string) (FrameReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "pcap-ng: open %s", path)
	}
	r := &pcapngReader{f: f, order: binary.LittleEndian}

	blockType, body, err := r.readRawBlock()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "pcap-ng: read section header %s", path)
	}
	if blockType != blockSectionHeader {
		f.Close()
		return nil, errors.Wrapf(ErrUnsupportedFormat, "pcap-ng: missing section header in %s", path)
	}
	if len(body) < 4 {
		f.Close()
		return nil, errors.Wrapf(ErrUnsupportedFormat, "pcap-ng: truncated section header in %s", path)
	}
	magic := binary.LittleEndian.Uint32(body[0:4])
	if magic == byteOrderMagic {
		r.order = binary.LittleEndian
	} else if binary.BigEndian.Uint32(body[0:4]) == byteOrderMagic {
		r.order = binary.BigEndian
	} else {
		f.Close()
		return nil, errors.Wrapf(ErrUnsupportedFormat, "pcap-ng: bad byte-order magic in %s", path)
	}

	// Consume leading Interface Description Blocks so the first
	// ReadFrame() call already knows every interface's link type and
	// timestamp resolution.
	for {
		pos, _ := f.Seek(0, io.SeekCurrent)
		blockType, body, err := r.readRawBlock()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "pcap-ng: scan interfaces")
		}
		if blockType != blockInterfaceDescription {
			// Not an IDB: rewind, leave it for ReadFrame.
			f.Seek(pos, io.SeekStart)
			break
		}
		iface, err := r.parseInterfaceDescription(body)
		if err != nil {
			f.Close()
			return nil, err
		}
		r.interfaces = append(r.interfaces, iface)
	}

	return r, nil
}

func (r *pcapngReader) parseInterfaceDescription(body []byte) (ngInterface, error) {
	if len(body) < 8 {
		return ngInterface{}, errors.Wrap(ErrUnsupportedFormat, "pcap-ng: truncated interface description")
	}
	iface := ngInterface{
		linkType:   LinkType(r.order.Uint16(body[0:2])),
		tsResolPow: 6, // default: microseconds
	}
	opts := body[8:]
	for len(opts) >= 4 {
		code := r.order.Uint16(opts[0:2])
		length := r.order.Uint16(opts[2:4])
		padded := int(length+3) / 4 * 4
		if code == optionEndOfOpt {
			break
		}
		if len(opts) < 4+padded {
			break
		}
		if code == optionIfTSResol && length >= 1 {
			b := opts[4]
			if b&0x80 != 0 {
				iface.tsResolPow = b &^ 0x80 // power of two; treated as decimal below for simplicity
			} else {
				iface.tsResolPow = b
			}
		}
		opts = opts[4+padded:]
	}
	return iface, nil
}

// readRawBlock reads one pcap-ng block and returns its type and body
// (excluding the leading type/length and trailing length fields).
func (r *pcapngReader) readRawBlock() (uint32, []byte, error) {
	var header [8]byte
	if _, err := io.ReadFull(r.f, header[:]); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, err
	}
	blockType := r.order.Uint32(header[0:4])
	totalLen := r.order.Uint32(header[4:8])
	if totalLen < 12 {
		return 0, nil, errors.Wrap(ErrUnsupportedFormat, "pcap-ng: implausible block length")
	}
	bodyLen := totalLen - 12
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r.f, body); err != nil {
		return 0, nil, err
	}
	var trailer [4]byte
	if _, err := io.ReadFull(r.f, trailer[:]); err != nil {
		return 0, nil, err
	}
	return blockType, body, nil
}

func (r *pcapngReader) LinkType() LinkType {
	if len(r.interfaces) == 0 {
		return LinkEthernet
	}
	return r.interfaces[0].linkType
}

func (r *pcapngReader) ReadFrame() (RawFrame, error) {
	for {
		blockType, body, err := r.readRawBlock()
		if err != nil {
			return RawFrame{}, err
		}
		switch blockType {
		case blockInterfaceDescription:
			iface, err := r.parseInterfaceDescription(body)
			if err != nil {
				return RawFrame{}, err
			}
			r.interfaces = append(r.interfaces, iface)
			continue
		case blockEnhancedPacket:
			return r.parseEnhancedPacket(body)
		default:
			continue // skip blocks this engine doesn't need
		}
	}
}

func (r *pcapngReader) parseEnhancedPacket(body []byte) (RawFrame, error) {
	if len(body) < 20 {
		return RawFrame{}, errors.Wrap(ErrUnsupportedFormat, "pcap-ng: truncated enhanced packet block")
	}
	ifaceID := r.order.Uint32(body[0:4])
	tsHigh := r.order.Uint32(body[4:8])
	tsLow := r.order.Uint32(body[8:12])
	capturedLen := r.order.Uint32(body[12:16])
	origLen := r.order.Uint32(body[16:20])

	data := body[20:]
	if uint32(len(data)) < capturedLen {
		return RawFrame{}, errors.Wrap(ErrUnsupportedFormat, "pcap-ng: packet data shorter than declared")
	}
	data = data[:capturedLen]

	var iface ngInterface
	if int(ifaceID) < len(r.interfaces) {
		iface = r.interfaces[ifaceID]
	} else {
		iface = ngInterface{linkType: LinkEthernet, tsResolPow: 6}
	}

	ts := (uint64(tsHigh) << 32) | uint64(tsLow)
	tick := ngTimestampToTicks(ts, iface.tsResolPow)

	r.frameNo++
	return RawFrame{
		FrameNumber:    r.frameNo,
		Tick:           tick,
		LinkType:       iface.linkType,
		FrameLength:    origLen,
		CapturedLength: capturedLen,
		Data:           append([]byte(nil), data...),
	}, nil
}

// ngTimestampToTicks converts a pcap-ng 64-bit timestamp (units of
// 10^-resolPow seconds since the Unix epoch) to the project's absolute
// 100ns tick convention.
func ngTimestampToTicks(ts uint64, resolPow uint8) int64 {
	// ticks = UnixEpochTicks + ts * (10^7 / 10^resolPow)
	if resolPow <= 7 {
		scale := int64(1)
		for i := uint8(0); i < 7-resolPow; i++ {
			scale *= 10
		}
		return UnixEpochTicks + int64(ts)*scale
	}
	divisor := int64(1)
	for i := uint8(0); i < resolPow-7; i++ {
		divisor *= 10
	}
	return UnixEpochTicks + int64(ts)/divisor
}

func (r *pcapngReader) Close() error { return r.f.Close() }
