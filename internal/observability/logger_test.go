package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/config"
)

// capturedStream collects everything written to a redirected stream. Reads
// wait for the pump goroutine to drain the pipe so assertions don't race it.
type capturedStream struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *capturedStream) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *capturedStream) Bytes() []byte {
	deadline := time.Now().Add(time.Second)
	prev := -1
	for {
		c.mu.Lock()
		n := c.buf.Len()
		c.mu.Unlock()
		if n == prev || time.Now().After(deadline) {
			break
		}
		prev = n
		time.Sleep(10 * time.Millisecond)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf.Bytes()...)
}

func (c *capturedStream) String() string {
	return string(c.Bytes())
}

// captureStderr redirects os.Stderr into a buffer for the duration of a test.
// The returned cleanup restores the original stream.
func captureStderr(t *testing.T) (*capturedStream, func()) {
	t.Helper()
	original := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stderr = w
	captured := &capturedStream{}
	go func() {
		_, _ = io.Copy(captured, r)
	}()

	cleanup := func() {
		w.Close()
		os.Stderr = original
	}
	return captured, cleanup
}

// resetGlobalLogger restores the uninitialized state. The logger is a global
// singleton, so every test must start from scratch.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func TestInitializeLogger(t *testing.T) {

	t.Run("console format with colors", func(t *testing.T) {
		resetGlobalLogger()
		buf, cleanup := captureStderr(t)
		defer cleanup()

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}
		InitializeLogger(cfg)
		GetLogger().Info("This is a test message.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "This is a test message.")
		assert.Contains(t, output, colorMap["green"])
		assert.Contains(t, output, colorReset)
	})

	t.Run("json format", func(t *testing.T) {
		resetGlobalLogger()
		buf, cleanup := captureStderr(t)
		defer cleanup()

		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		}
		InitializeLogger(cfg)
		GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))
		Sync()

		var logEntry map[string]interface{}
		err := json.Unmarshal(buf.Bytes(), &logEntry)
		require.NoError(t, err, "log output should be valid JSON")

		assert.Equal(t, "warn", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("console output stays off stdout", func(t *testing.T) {
		// The report stream owns stdout; a log line leaking into it would
		// corrupt JSON/SARIF output piped to another tool.
		resetGlobalLogger()
		originalStdout := os.Stdout
		r, w, err := os.Pipe()
		require.NoError(t, err)
		os.Stdout = w
		var stdoutBuf bytes.Buffer
		go func() {
			_, _ = stdoutBuf.ReadFrom(r)
		}()
		errBuf, cleanup := captureStderr(t)

		InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "StreamTest"})
		GetLogger().Info("must not reach stdout")
		Sync()

		cleanup()
		w.Close()
		os.Stdout = originalStdout

		assert.Empty(t, stdoutBuf.String())
		assert.Contains(t, errBuf.String(), "must not reach stdout")
	})

	t.Run("writes to a log file when configured", func(t *testing.T) {
		resetGlobalLogger()
		tmpFile, err := os.CreateTemp("", "logger-test-*.log")
		require.NoError(t, err)
		defer os.Remove(tmpFile.Name())

		cfg := config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: tmpFile.Name(),
			MaxSize: 1,
		}
		InitializeLogger(cfg)
		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(tmpFile.Name())
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
	})

	t.Run("only initializes once", func(t *testing.T) {
		resetGlobalLogger()
		buf, cleanup := captureStderr(t)
		defer cleanup()

		InitializeLogger(config.LoggerConfig{Level: "info", ServiceName: "First"})
		logger1 := GetLogger()

		InitializeLogger(config.LoggerConfig{Level: "debug", ServiceName: "Second"})
		logger2 := GetLogger()

		assert.Equal(t, logger1, logger2)
		logger2.Info("test")
		Sync()

		assert.True(t, strings.Contains(buf.String(), "First"))
		assert.False(t, strings.Contains(buf.String(), "Second"))
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		resetGlobalLogger()
		logger := GetLogger()
		require.NotNil(t, logger)
	})

	t.Run("global instance after initialization", func(t *testing.T) {
		resetGlobalLogger()
		InitializeLogger(config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})

		logger := GetLogger()
		assert.Equal(t, globalLogger.Load(), logger)
	})
}
