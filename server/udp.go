package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/joshuapare/osckit/internal/metrics"
	"github.com/joshuapare/osckit/osc/message"
	"github.com/joshuapare/osckit/osc/query"
)

// serveUDP reads datagrams until the socket is closed. Each datagram is
// decoded and applied on the loop without waiting for the result.
func (s *Server) serveUDP(ctx context.Context) error {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := s.udp.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read osc: %w", err)
		}
		metrics.RecordReceived(metrics.TransportUDP)
		data := bytes.Clone(buf[:n])
		if !s.submit(ctx, func(t *query.Tree) error {
			s.apply(t, data, metrics.TransportUDP, from)
			return nil
		}) {
			return nil
		}
	}
}

// submit queues fn on the loop without waiting. It reports false once the
// loop is gone.
func (s *Server) submit(ctx context.Context, fn func(*query.Tree) error) bool {
	select {
	case s.ops <- op{fn: fn}:
		return true
	case <-s.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

// apply decodes one inbound packet and dispatches it. Runs on the loop.
func (s *Server) apply(t *query.Tree, data []byte, transport string, from net.Addr) {
	m, err := message.Decode(data)
	if err == nil {
		err = t.Dispatch(m)
	}
	if err != nil {
		metrics.RecordDropped(transport, err)
		s.log.Debug().
			Err(err).
			Str("transport", transport).
			Stringer("from", from).
			Int("bytes", len(data)).
			Msg("dropped osc message")
	}
}
