package reader

import (
	"os"

	"github.com/pkg/errors"
)

// netmonReader is a stub for the Microsoft NetMon capture variant (magic
// 0x55424D47, "GMBU" on disk). NetMon's frame table and per-frame
// timestamp encoding are vendor-specific and undocumented in this tree's
// corpus; per spec.md §1 the concrete capture-file readers are external
// collaborators specified only by interface, so this reader satisfies
// FrameReader and opens the file, but ReadFrame always returns
// ErrReaderNotImplemented.
type netmonReader struct {
	f *os.File
}

func openNetMon(path string) (FrameReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "netmon: open %s", path)
	}
	return &netmonReader{f: f}, nil
}

func (r *netmonReader) LinkType() LinkType { return LinkEthernet }

func (r *netmonReader) ReadFrame() (RawFrame, error) {
	return RawFrame{}, errors.Wrap(ErrReaderNotImplemented, "netmon")
}

func (r *netmonReader) Close() error { return r.f.Close() }
