package reader

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Logger is the narrow diagnostic sink this package logs to. Defined here
// (rather than importing internal/diag) to keep reader free of a
// dependency on the engine's internal packages; internal/diag.Logger
// satisfies this interface structurally.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// OrderedFile is one entry of a batch ordered by first-frame tick (§4.B).
type OrderedFile struct {
	Path      string
	Format    Format
	ModTime   os.FileInfo
	Size      int64
	FirstTick int64
}

// Glob expands a file spec that may contain '*'/'?' wildcards into a
// concrete list of paths. Wildcard expansion has no pack-provided
// third-party alternative worth reaching for over the standard library
// (see DESIGN.md).
func Glob(spec string) ([]string, error) {
	matches, err := filepath.Glob(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", spec)
	}
	if len(matches) == 0 {
		// Not necessarily an error condition upstream of here; a literal
		// path with no wildcard metacharacters that doesn't exist will
		// surface as a FileAccess error from Order instead.
		if !containsWildcard(spec) {
			return []string{spec}, nil
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func containsWildcard(spec string) bool {
	for _, r := range spec {
		if r == '*' || r == '?' {
			return true
		}
	}
	return false
}

// Order opens each path, sniffs its format, reads exactly one frame to
// obtain its first tick, and returns the batch sorted ascending by that
// tick (§4.B — "this ordering is preferred over mtime because capture
// files are sometimes re-touched by other tools"). A per-file open/read
// failure is logged and excluded from the result rather than aborting the
// batch; all such failures are aggregated into the returned error via
// go-multierror so a caller can inspect what was skipped without losing
// the files that did succeed.
func Order(paths []string, log Logger) ([]OrderedFile, error) {
	var result []OrderedFile
	var errs *multierror.Error

	for _, path := range paths {
		of, err := probeFile(path)
		if err != nil {
			if log != nil {
				log.Warnf("file ordering: skipping %s: %v", path, err)
			}
			errs = multierror.Append(errs, errors.Wrapf(err, "probe %s", path))
			continue
		}
		result = append(result, of)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FirstTick < result[j].FirstTick
	})

	return result, errs.ErrorOrNil()
}

func probeFile(path string) (OrderedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return OrderedFile{}, errors.Wrap(err, "stat")
	}

	format, err := DetectFormat(path)
	if err != nil {
		return OrderedFile{}, err
	}

	fr, err := Open(path, format)
	if err != nil {
		return OrderedFile{}, err
	}
	defer fr.Close()

	frame, err := fr.ReadFrame()
	if err != nil && err != io.EOF {
		return OrderedFile{}, errors.Wrap(err, "read first frame")
	}
	if err == io.EOF {
		// An empty-of-frames file still orders deterministically: treat
		// its first tick as zero so it sorts first rather than erroring
		// the whole file out of the batch.
		return OrderedFile{Path: path, Format: format, ModTime: info, Size: info.Size()}, nil
	}

	return OrderedFile{
		Path:      path,
		Format:    format,
		ModTime:   info,
		Size:      info.Size(),
		FirstTick: frame.Tick,
	}, nil
}
