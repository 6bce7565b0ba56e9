package launch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/browserctl/browserctl/cdp/cdptest"
)

func testLog(t *testing.T) *zap.SugaredLogger {
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	return l.Sugar()
}

func TestDiscoverEndpoint(t *testing.T) {
	s := cdptest.NewServer()
	defer s.Close()

	info, err := DiscoverEndpoint(context.Background(), s.BaseURL(), testLog(t))
	require.NoError(t, err)
	assert.Equal(t, s.WSURL(), info.WebSocketDebuggerURL)
	assert.NotEmpty(t, info.Browser)
}

func TestDiscoverEndpointRetriesUntilUp(t *testing.T) {
	// Nothing listens yet; the poll must keep retrying until the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := DiscoverEndpoint(ctx, "http://127.0.0.1:1", testLog(t))
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond,
		"gave up without retrying")
}

func TestFindBinaryEnvVar(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("CHROME", fake)

	path, err := FindBinary()
	require.NoError(t, err)
	assert.Equal(t, fake, path)
}

func TestFindBinaryEnvVarMissingFile(t *testing.T) {
	t.Setenv("CHROME", filepath.Join(t.TempDir(), "nope"))
	_, err := FindBinary()
	require.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "browserctl-profile-test-"+t.Name())
	require.NoError(t, os.MkdirAll(dir, 0o700))

	c := &Chrome{log: testLog(t), profileDir: dir}
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "profile dir should be removed")
}
