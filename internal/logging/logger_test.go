package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajju10/portiq/internal/config"
)

func TestNew_StdoutCompact(t *testing.T) {
	logger, closer, err := New(config.LogConfig{Level: "INFO", Format: "compact", FilePath: "stdout"})
	require.NoError(t, err)
	require.Nil(t, closer)
	require.NotNil(t, logger)
}

func TestNew_FileRotatesThroughLumberjack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.log")

	logger, closer, err := New(config.LogConfig{Level: "DEBUG", Format: "json", FilePath: path})
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}

func TestNew_UnknownLevelErrors(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "TRACE"})
	require.Error(t, err)
}

func TestNew_UnknownFormatErrors(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "INFO", Format: "xml"})
	require.Error(t, err)
}
