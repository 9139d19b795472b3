// Package server accepts print jobs over TCP and WebSocket and runs each
// one as a session.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/dispatch"
)

// MaxJobSize bounds one job line.
const MaxJobSize = 4 << 20

// Runner executes print sessions. *dispatch.Dispatcher satisfies it.
type Runner interface {
	RunJob(ctx context.Context, job dispatch.Job) dispatch.Result
}

// jobQueue runs jobs, one at a time per device.
type jobQueue struct {
	runner Runner

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newJobQueue(runner Runner) *jobQueue {
	return &jobQueue{runner: runner, locks: make(map[string]*sync.Mutex)}
}

func (q *jobQueue) deviceLock(job dispatch.Job) *sync.Mutex {
	key := string(job.Device.Kind) + " " + job.Device.String()

	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.locks[key]
	if !ok {
		l = &sync.Mutex{}
		q.locks[key] = l
	}
	return l
}

// process decodes one job message and runs it.
func (q *jobQueue) process(ctx context.Context, msg []byte) dispatch.Result {
	job, err := dispatch.DecodeJob(msg)
	if err != nil {
		return dispatch.Result{Err: err}
	}

	l := q.deviceLock(job)
	l.Lock()
	defer l.Unlock()
	return q.runner.RunJob(ctx, job)
}

// Server represents a TCP server that reads one JSON job per line and
// answers each with one JSON result line.
type Server struct {
	jobs     *jobQueue
	listener net.Listener
	address  string
	mu       sync.Mutex
	running  bool
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a new server instance
func New(runner Runner, address string) *Server {
	return NewWithLogger(runner, address, zap.L())
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(runner Runner, address string, logger *zap.Logger) *Server {
	return &Server{
		jobs:    newJobQueue(runner),
		address: address,
		conns:   make(map[net.Conn]struct{}),
		logger:  logger.Named("server"),
	}
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Error("server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Error("failed to start server", zap.String("address", s.address), zap.Error(err))
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.logger.Info("server listening", zap.Stringer("address", listener.Addr()))
	return nil
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	if err := s.listen(); err != nil {
		return err
	}

	s.wg.Add(1)
	s.acceptConnections()
	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.acceptConnections()
	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				s.logger.Debug("accept loop stopped")
				return
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single client connection
func (s *Server) handleConnection(conn net.Conn) {
	clientAddr := conn.RemoteAddr().String()
	log := s.logger.With(zap.String("client", clientAddr))

	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		log.Debug("client disconnected")
	}()
	log.Debug("client connected")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxJobSize)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		res := s.jobs.process(context.Background(), line)
		if err := enc.Encode(res); err != nil {
			log.Warn("failed to write result", zap.Error(err))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			log.Warn("read failed", zap.Error(err))
		}
	}
}

// Stop closes the listener and all client connections, then waits for
// running sessions to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.logger.Info("stopping server")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.wg.Wait()
	s.logger.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured server address
func (s *Server) Address() string {
	return s.address
}

// ListenAddr returns the bound address while running, nil otherwise.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	return s.listener.Addr()
}

// WSHandler returns a WebSocket handler that shares this server's
// per-device serialization.
func (s *Server) WSHandler() *WSHandler {
	return &WSHandler{jobs: s.jobs, logger: s.logger.Named("ws"), upgrader: newUpgrader()}
}
