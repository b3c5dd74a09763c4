package logger

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("create rotating writer", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		assert.NotNil(t, rw)

		defer rw.Close()

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})

	t.Run("create directory if not exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "subdir", "test.log")

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		assert.NotNil(t, rw)

		defer rw.Close()

		_, err = os.Stat(filepath.Dir(logFile))
		assert.NoError(t, err)
	})

	t.Run("resumes size of existing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")
		require.NoError(t, os.WriteFile(logFile, []byte("12345"), 0644))

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		defer rw.Close()

		assert.Equal(t, int64(5), rw.currentSize)
	})
}

func TestRotatingWriterWrite(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	rw, err := NewRotatingWriter(logFile, 1, 7, false)
	require.NoError(t, err)
	defer rw.Close()

	data := []byte("test log message\n")
	n, err := rw.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test log message")
}

func TestRotatingWriterRotation(t *testing.T) {
	t.Run("rotates when full", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")

		rw, err := NewRotatingWriter(logFile, 1, 7, false)
		require.NoError(t, err)
		defer rw.Close()

		// shrink the limit so two writes overflow it
		rw.maxSize = 100

		_, err = rw.Write([]byte(strings.Repeat("a", 80)))
		require.NoError(t, err)
		_, err = rw.Write([]byte(strings.Repeat("b", 80)))
		require.NoError(t, err)

		files, err := filepath.Glob(filepath.Join(tmpDir, "test.log.*"))
		require.NoError(t, err)
		require.Len(t, files, 1)

		rotated, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 80), string(rotated))

		current, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("b", 80), string(current))
	})

	t.Run("compresses rotated file", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")

		rw, err := NewRotatingWriter(logFile, 1, 7, true)
		require.NoError(t, err)
		defer rw.Close()
		rw.maxSize = 10

		_, err = rw.Write([]byte("first line\n"))
		require.NoError(t, err)
		_, err = rw.Write([]byte("second line\n"))
		require.NoError(t, err)

		files, err := filepath.Glob(filepath.Join(tmpDir, "test.log.*.gz"))
		require.NoError(t, err)
		require.Len(t, files, 1)

		f, err := os.Open(files[0])
		require.NoError(t, err)
		defer f.Close()
		gzr, err := gzip.NewReader(f)
		require.NoError(t, err)
		content, err := io.ReadAll(gzr)
		require.NoError(t, err)
		assert.Equal(t, "first line\n", string(content))
	})
}

func TestRotatingWriterClose(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	rw, err := NewRotatingWriter(logFile, 10, 7, false)
	require.NoError(t, err)

	assert.NoError(t, rw.Close())
	assert.NoError(t, rw.Close())
}

func TestCompressFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")

	err := os.WriteFile(testFile, []byte("test content"), 0644)
	require.NoError(t, err)

	err = compressFile(testFile)
	require.NoError(t, err)

	_, err = os.Stat(testFile + ".gz")
	assert.NoError(t, err)

	_, err = os.Stat(testFile)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanup(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	oldFile := logFile + ".20200101-120000.000000"
	err := os.WriteFile(oldFile, []byte("old log"), 0644)
	require.NoError(t, err)

	oldTime := time.Now().AddDate(0, 0, -10)
	err = os.Chtimes(oldFile, oldTime, oldTime)
	require.NoError(t, err)

	recentFile := logFile + ".20991231-120000.000000.gz"
	err = os.WriteFile(recentFile, []byte("recent log"), 0644)
	require.NoError(t, err)

	rw, err := NewRotatingWriter(logFile, 10, 7, false)
	require.NoError(t, err)
	defer rw.Close()

	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(recentFile)
	assert.NoError(t, err)
}
