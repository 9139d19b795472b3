package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/adapter"
	"github.com/nixxel-company-limited/escpos-printkit/dispatch"
)

// MockRunner records jobs and answers with a fixed byte count.
type MockRunner struct {
	mu     sync.Mutex
	jobs   []dispatch.Job
	active int
	peak   int
	delay  time.Duration
}

func (m *MockRunner) RunJob(ctx context.Context, job dispatch.Job) dispatch.Result {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.active++
	m.peak = max(m.peak, m.active)
	m.mu.Unlock()

	time.Sleep(m.delay)

	m.mu.Lock()
	m.active--
	m.mu.Unlock()
	return dispatch.Result{BytesSent: len(job.Commands)}
}

func startServer(t *testing.T, runner Runner) *Server {
	t.Helper()

	server := NewWithLogger(runner, "127.0.0.1:0", zap.NewNop())
	require.NoError(t, server.StartAsync())
	t.Cleanup(func() { server.Stop() })
	return server
}

func dial(t *testing.T, server *Server) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", server.ListenAddr().String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func roundTrip(t *testing.T, conn net.Conn, r *bufio.Reader, line string) dispatch.Report {
	t.Helper()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err := fmt.Fprintln(conn, line)
	require.NoError(t, err)

	resp, err := r.ReadBytes('\n')
	require.NoError(t, err)

	var rep dispatch.Report
	require.NoError(t, json.Unmarshal(resp, &rep))
	return rep
}

func TestNewServer(t *testing.T) {
	address := "localhost:9110"
	server := New(&MockRunner{}, address)

	assert.NotNil(t, server)
	assert.Equal(t, address, server.Address())
	assert.False(t, server.IsRunning())
	assert.Nil(t, server.ListenAddr())
}

func TestServerStartStop(t *testing.T) {
	server := NewWithLogger(&MockRunner{}, "127.0.0.1:0", zap.NewNop())

	err := server.StartAsync()
	require.NoError(t, err)
	assert.True(t, server.IsRunning())
	assert.NotNil(t, server.ListenAddr())

	// Test double start
	err = server.StartAsync()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	err = server.Stop()
	require.NoError(t, err)
	assert.False(t, server.IsRunning())

	// Test double stop (should not error)
	err = server.Stop()
	assert.NoError(t, err)
}

func TestServerStopWithIdleClient(t *testing.T) {
	server := NewWithLogger(&MockRunner{}, "127.0.0.1:0", zap.NewNop())
	require.NoError(t, server.StartAsync())

	conn, err := net.Dial("tcp", server.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	done := make(chan error, 1)
	go func() { done <- server.Stop() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on an idle client")
	}
}

func TestServerBlockingStart(t *testing.T) {
	server := NewWithLogger(&MockRunner{}, "127.0.0.1:0", zap.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	require.Eventually(t, server.IsRunning, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, server.Stop())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestServerRunsJobs(t *testing.T) {
	runner := &MockRunner{}
	server := startServer(t, runner)
	conn, r := dial(t, server)

	rep := roundTrip(t, conn, r, `{"device": {"host": "10.0.0.2", "port": 9100}, "commands": [{"name": "text", "args": ["hi"]}, {"name": "cut", "args": [false]}]}`)
	assert.Equal(t, dispatch.Report{BytesSent: 2, Outcome: dispatch.OutcomeDelivered}, rep)

	rep = roundTrip(t, conn, r, `{"device": {"path": "/dev/usb/lp0"}, "commands": []}`)
	assert.Equal(t, dispatch.OutcomeDelivered, rep.Outcome)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.jobs, 2)
	assert.Equal(t, adapter.NetworkEndpoint("10.0.0.2", 9100), runner.jobs[0].Device)
	assert.Equal(t, adapter.LocalFile("/dev/usb/lp0"), runner.jobs[1].Device)
}

func TestServerReportsDecodeErrors(t *testing.T) {
	runner := &MockRunner{}
	server := startServer(t, runner)
	conn, r := dial(t, server)

	rep := roundTrip(t, conn, r, `{"device": {"path": "/dev/usb/lp0"}, "commands": [{"name": "feed", "args": [1.5]}]}`)
	assert.Equal(t, dispatch.OutcomeFailed, rep.Outcome)
	assert.Equal(t, "ArgumentTypeError", rep.ErrorKind)
	assert.Zero(t, rep.BytesSent)

	rep = roundTrip(t, conn, r, `{not json`)
	assert.Equal(t, dispatch.OutcomeFailed, rep.Outcome)
	assert.Equal(t, "Unknown", rep.ErrorKind)

	assert.Empty(t, runner.jobs)
}

func TestServerSerializesPerDevice(t *testing.T) {
	runner := &MockRunner{delay: 50 * time.Millisecond}
	server := startServer(t, runner)

	job := `{"device": {"host": "10.0.0.2", "port": 9100}, "commands": []}`

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		conn, r := dial(t, server)
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn.SetDeadline(time.Now().Add(5 * time.Second))
			fmt.Fprintln(conn, job)
			r.ReadBytes('\n')
		}()
	}
	wg.Wait()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.jobs, 3)
	assert.Equal(t, 1, runner.peak, "sessions to one device must not overlap")
}

func TestServerWithDispatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	server := startServer(t, dispatch.NewWithLogger(zap.NewNop()))
	conn, r := dial(t, server)

	job, err := json.Marshal(map[string]any{
		"device":   map[string]any{"path": path},
		"commands": []any{map[string]any{"name": "text", "args": []any{"Hello"}}, map[string]any{"name": "cut", "args": []any{true}}},
	})
	require.NoError(t, err)

	rep := roundTrip(t, conn, r, string(job))
	assert.Equal(t, dispatch.Report{BytesSent: 9, Outcome: dispatch.OutcomeDelivered}, rep)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello\n\x1dV\x01"), got)
}
