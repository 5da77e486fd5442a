package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_WritesUnderLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := New(dir, false)
	assert.NoError(t, err)

	log.Info("startup")
	_ = log.Sync()

	// The file lives inside the directory, not beside it with the dir
	// name glued onto the file name.
	_, err = os.Stat(filepath.Join(dir, "flightbooking.log"))
	assert.NoError(t, err)
}

func TestNew_EmptyDirSkipsFileSink(t *testing.T) {
	log, err := New("", true)
	assert.NoError(t, err)
	assert.NotNil(t, log)
}
