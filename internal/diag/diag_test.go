package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderCapturesEachSeverity(t *testing.T) {
	r := require.New(t)
	rec := NewRecorder()

	rec.Infof("info %d", 1)
	rec.Warnf("warn %d", 2)
	rec.Dropf("drop %d", 3)

	r.Equal([]string{"info 1"}, rec.Infos)
	r.Equal([]string{"warn 2"}, rec.Warns)
	r.Equal([]string{"drop 3"}, rec.Drops)
}

func TestNopDiscardsEverything(t *testing.T) {
	r := require.New(t)
	r.NotPanics(func() {
		Nop.Infof("x")
		Nop.Warnf("y")
		Nop.Dropf("z")
	})
}
