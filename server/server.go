// Package server exposes a query.Tree over the network: OSC over UDP,
// OSCQuery over HTTP and listen/stream control over WebSocket.
//
// All tree access happens on one event-loop goroutine. Transport goroutines
// and application code submit work with Do or Set; nothing else touches the
// tree while the server runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/osckit/internal/charset"
	"github.com/joshuapare/osckit/internal/metrics"
	"github.com/joshuapare/osckit/osc/query"
	"github.com/joshuapare/osckit/pkg/types"
)

const (
	// maxDatagram is the largest UDP payload over IPv4.
	maxDatagram = 65507

	defaultQueueSize   = 256
	sendQueueSize      = 64
	shutdownTimeout    = 5 * time.Second
	writeTimeout       = 5 * time.Second
	initialEncodeBytes = 1024
)

// ErrClosed is returned by Do once the event loop has stopped.
var ErrClosed = errors.New("server: closed")

// Options configures a Server.
type Options struct {
	// Name is advertised in the host-info document.
	Name string
	// Bind is the listen host; empty listens on all interfaces.
	Bind string
	// OSCPort is the UDP port (0 picks a free port).
	OSCPort int
	// HTTPPort is the HTTP/WebSocket port (0 picks a free port).
	HTTPPort int
	// Charset encodes outbound string values.
	Charset charset.Charset
	// Logger receives transport diagnostics. The zero value discards them.
	Logger zerolog.Logger
	// QueueSize bounds pending event-loop operations.
	QueueSize int
}

type op struct {
	fn   func(*query.Tree) error
	done chan error
}

// Server serves one tree.
type Server struct {
	opts Options
	log  zerolog.Logger
	tree *query.Tree

	ops     chan op
	stopped chan struct{}

	udp    *net.UDPConn
	httpLn net.Listener
	http   *http.Server
	engine *gin.Engine

	upgrader websocket.Upgrader

	// loop-owned
	sessions  map[uuid.UUID]*session
	listeners map[query.NodeID]map[uuid.UUID]*session
	encodeBuf []byte

	// open WebSocket connections, closed on shutdown
	connMu sync.Mutex
	conns  map[uuid.UUID]*websocket.Conn
}

// New creates a server for t. It installs a tree callback (chaining any
// existing one) that pushes updates to listeners.
func New(t *query.Tree, opts Options) (*Server, error) {
	if t == nil {
		return nil, errors.New("server: nil tree")
	}
	if opts.Name == "" {
		opts.Name = "osckit"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	metrics.Register()

	s := &Server{
		opts:      opts,
		log:       opts.Logger,
		tree:      t,
		ops:       make(chan op, opts.QueueSize),
		stopped:   make(chan struct{}),
		sessions:  make(map[uuid.UUID]*session),
		listeners: make(map[query.NodeID]map[uuid.UUID]*session),
		encodeBuf: make([]byte, initialEncodeBytes),
		conns:     make(map[uuid.UUID]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxDatagram,
			WriteBufferSize: initialEncodeBytes,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	prev := t.Callback()
	t.SetCallback(func(n *query.Node) {
		if prev != nil {
			prev(n)
		}
		s.onCommit(n)
	})

	s.engine = s.routes()
	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Listen binds the UDP and TCP sockets. Run calls it when needed; calling it
// first makes the bound addresses available before serving.
func (s *Server) Listen() error {
	if s.udp != nil {
		return nil
	}
	udpAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(s.opts.Bind, strconv.Itoa(s.opts.OSCPort)))
	if err != nil {
		return fmt.Errorf("resolve osc address: %w", err)
	}
	udp, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen osc: %w", err)
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(s.opts.Bind, strconv.Itoa(s.opts.HTTPPort)))
	if err != nil {
		_ = udp.Close()
		return fmt.Errorf("listen http: %w", err)
	}
	s.udp, s.httpLn = udp, ln
	return nil
}

// OSCAddr returns the bound UDP address, or nil before Listen.
func (s *Server) OSCAddr() *net.UDPAddr {
	if s.udp == nil {
		return nil
	}
	return s.udp.LocalAddr().(*net.UDPAddr)
}

// HTTPAddr returns the bound TCP address, or nil before Listen.
func (s *Server) HTTPAddr() net.Addr {
	if s.httpLn == nil {
		return nil
	}
	return s.httpLn.Addr()
}

// Handler returns the HTTP handler serving OSCQuery and WebSocket requests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.log.Info().
		Str("osc", s.OSCAddr().String()).
		Str("http", s.HTTPAddr().String()).
		Int("nodes", s.tree.Len()).
		Msg("server started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.loop(ctx) })
	g.Go(func() error { return s.serveUDP(ctx) })
	g.Go(func() error {
		if err := s.http.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.shutdown()
	})

	err := g.Wait()
	s.log.Info().Err(err).Msg("server stopped")
	return err
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)

	s.connMu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.connMu.Unlock()

	if cerr := s.udp.Close(); err == nil {
		err = cerr
	}
	return err
}

// loop runs submitted operations one at a time.
func (s *Server) loop(ctx context.Context) error {
	defer close(s.stopped)
	metrics.SetArenaRemaining(s.tree.Allocator().Remaining())
	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-s.ops:
			err := o.fn(s.tree)
			if o.done != nil {
				o.done <- err
			}
			metrics.SetArenaRemaining(s.tree.Allocator().Remaining())
		}
	}
}

// Do runs fn on the event loop and waits for its result. fn must not retain
// the tree or its nodes.
func (s *Server) Do(ctx context.Context, fn func(*query.Tree) error) error {
	done := make(chan error, 1)
	select {
	case s.ops <- op{fn: fn, done: done}:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Set assigns v to the node at addr on the event loop.
func (s *Server) Set(ctx context.Context, addr string, v types.Value) error {
	return s.Do(ctx, func(t *query.Tree) error {
		n, err := t.Get(addr)
		if err != nil {
			return err
		}
		return n.Set(v)
	})
}

// Get returns a copy of the value at addr, read on the event loop.
func (s *Server) Get(ctx context.Context, addr string) (types.Value, error) {
	var v types.Value
	err := s.Do(ctx, func(t *query.Tree) error {
		n, err := t.Get(addr)
		if err != nil {
			return err
		}
		v = n.Value()
		return nil
	})
	return v, err
}

// onCommit runs on the loop after every committed set.
func (s *Server) onCommit(n *query.Node) {
	metrics.RecordUpdate()
	if n.Listening() {
		s.push(n)
	}
}
