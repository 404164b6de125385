package reader

import (
	"os"

	"github.com/pkg/errors"
)

// etlReader is a stub for Windows Event Trace Log captures, detected only
// by the ".etl" extension (§4.B — ETL carries no magic number). ETW's
// trace-session framing is out of this engine's decode scope for the same
// reason NetMon is: it is an external collaborator specified only by
// interface.
type etlReader struct {
	f *os.File
}

func openETL(path string) (FrameReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "etl: open %s", path)
	}
	return &etlReader{f: f}, nil
}

func (r *etlReader) LinkType() LinkType { return LinkEthernet }

func (r *etlReader) ReadFrame() (RawFrame, error) {
	return RawFrame{}, errors.Wrap(ErrReaderNotImplemented, "etl")
}

func (r *etlReader) Close() error { return r.f.Close() }
