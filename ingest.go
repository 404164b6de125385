package tracecore

import (
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/csssqlnet/tracecore/reader"
)

// Ingest implements the full B->(A->C->D->E+F)->G->H->I pipeline described
// in §2: it expands fileSpec, orders the matches by first-frame tick,
// decodes every frame of every file into t, then runs the three
// post-processing passes once over the complete trace. Per-file failures
// (open/read/probe errors) are logged, the offending file is skipped, and
// ingest continues with the rest of the batch; they are all collected into
// the returned error via go-multierror so a caller can inspect exactly what
// was dropped without losing the files that did succeed.
func (t *Trace) Ingest(fileSpec string) error {
	paths, err := reader.Glob(fileSpec)
	if err != nil {
		return errors.Wrap(err, "ingest")
	}

	ordered, orderErr := reader.Order(paths, t.log())
	var errs *multierror.Error
	if orderErr != nil {
		errs = multierror.Append(errs, orderErr)
	}

	for _, of := range ordered {
		if err := t.ingestFile(of); err != nil {
			t.log().Warnf("ingest: %s: %v", of.Path, err)
			t.Stats.FilesFailed++
			errs = multierror.Append(errs, errors.Wrapf(err, "ingest %s", of.Path))
			continue
		}
		t.Stats.FilesIngested++
	}

	t.FixupAll()

	return errs.ErrorOrNil()
}

// ingestFile decodes every frame of a single already-ordered file into t.
func (t *Trace) ingestFile(of reader.OrderedFile) error {
	fr, err := reader.Open(of.Path, of.Format)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer fr.Close()

	file := File{
		Path:      of.Path,
		Size:      of.Size,
		FirstTick: of.FirstTick,
		Format:    of.Format,
	}
	if of.ModTime != nil {
		file.ModTime = of.ModTime.ModTime()
	}
	fileID := t.addFile(file)

	var lastTick int64
	frameCount := 0
	for {
		raw, err := fr.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "read frame")
		}

		t.IngestFrame(fileID, raw)
		frameCount++
		if raw.Tick > lastTick {
			lastTick = raw.Tick
		}
	}

	f := t.files(fileID)
	f.LastTick = lastTick
	f.FrameCount = frameCount

	return nil
}

// FixupAll runs the three post-processing passes once, in the fixed order
// §5 requires: direction correction, then retransmit marking, then
// continuation marking (which depends on retransmit results).
func (t *Trace) FixupAll() {
	t.fixupDirection()
	t.fixupRetransmit()
	t.fixupContinuation()
}

func (t *Trace) files(id FileID) *File {
	return &t.Files[id]
}
