package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/joshuapare/osckit/internal/metrics"
	"github.com/joshuapare/osckit/osc/message"
	"github.com/joshuapare/osckit/osc/query"
	"github.com/joshuapare/osckit/pkg/types"
)

// WebSocket commands.
const (
	CmdListen         = "LISTEN"
	CmdIgnore         = "IGNORE"
	CmdStartStreaming = "START_OSC_STREAMING"
)

// Command is a text frame sent by a WebSocket client.
type Command struct {
	Command string          `json:"COMMAND"`
	Data    json.RawMessage `json:"DATA,omitempty"`
}

// StreamPorts is the DATA of START_OSC_STREAMING. Non-critical updates are
// then sent by UDP to LOCAL_SERVER_PORT on the client host.
type StreamPorts struct {
	ServerPort int `json:"LOCAL_SERVER_PORT"`
	SenderPort int `json:"LOCAL_SENDER_PORT"`
}

// session is one WebSocket client. Fields other than id, conn, send and done
// are owned by the loop.
type session struct {
	id   uuid.UUID
	conn *websocket.Conn
	host net.IP
	send chan []byte
	done chan struct{}

	stream    *net.UDPAddr
	listening map[query.NodeID]struct{}
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := &session{
		id:        uuid.New(),
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
		listening: make(map[query.NodeID]struct{}),
	}
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		sess.host = addr.IP
	}

	ctx := c.Request.Context()
	if err := s.Do(ctx, func(*query.Tree) error {
		s.sessions[sess.id] = sess
		return nil
	}); err != nil {
		_ = conn.Close()
		return
	}
	s.connMu.Lock()
	s.conns[sess.id] = conn
	s.connMu.Unlock()
	metrics.AddWSClients(1)

	log := s.log.With().Str("session", sess.id.String()).Logger()
	log.Debug().Stringer("remote", conn.RemoteAddr()).Msg("websocket connected")

	go s.writePump(sess)
	s.readPump(ctx, sess)

	close(sess.done)
	_ = s.Do(context.Background(), func(t *query.Tree) error {
		s.unregister(t, sess)
		return nil
	})
	s.connMu.Lock()
	delete(s.conns, sess.id)
	s.connMu.Unlock()
	_ = conn.Close()
	metrics.AddWSClients(-1)
	log.Debug().Msg("websocket disconnected")
}

func (s *Server) readPump(ctx context.Context, sess *session) {
	for {
		kind, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			metrics.RecordReceived(metrics.TransportWS)
			from := sess.conn.RemoteAddr()
			if !s.submit(ctx, func(t *query.Tree) error {
				s.apply(t, data, metrics.TransportWS, from)
				return nil
			}) {
				return
			}
		case websocket.TextMessage:
			if err := s.command(ctx, sess, data); err != nil {
				s.log.Debug().
					Err(err).
					Str("session", sess.id.String()).
					Msg("websocket command failed")
			}
		}
	}
}

func (s *Server) writePump(sess *session) {
	for {
		select {
		case <-sess.done:
			return
		case b := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sess.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
				_ = sess.conn.Close()
				return
			}
			metrics.RecordSent(metrics.TransportWS)
		}
	}
}

// command runs one text-frame command and waits for it to take effect.
func (s *Server) command(ctx context.Context, sess *session, data []byte) error {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	switch strings.ToUpper(cmd.Command) {
	case CmdListen, CmdIgnore:
		var addr string
		if err := json.Unmarshal(cmd.Data, &addr); err != nil {
			return fmt.Errorf("%s: %w", cmd.Command, err)
		}
		listen := strings.EqualFold(cmd.Command, CmdListen)
		return s.Do(ctx, func(t *query.Tree) error {
			n, err := t.Get(addr)
			if err != nil {
				return err
			}
			if listen {
				s.listen(sess, n)
			} else {
				s.ignore(sess, n)
			}
			return nil
		})
	case CmdStartStreaming:
		var ports StreamPorts
		if err := json.Unmarshal(cmd.Data, &ports); err != nil {
			return fmt.Errorf("%s: %w", cmd.Command, err)
		}
		if ports.ServerPort <= 0 || ports.ServerPort > 65535 {
			return fmt.Errorf("%s: invalid LOCAL_SERVER_PORT %d", cmd.Command, ports.ServerPort)
		}
		stream := &net.UDPAddr{IP: sess.host, Port: ports.ServerPort}
		return s.Do(ctx, func(*query.Tree) error {
			sess.stream = stream
			return nil
		})
	default:
		return fmt.Errorf("%w: command %q", types.ErrAttributeUnsupported, cmd.Command)
	}
}

// listen, ignore, unregister and push run on the loop.

func (s *Server) listen(sess *session, n *query.Node) {
	if _, ok := sess.listening[n.ID()]; ok {
		return
	}
	sess.listening[n.ID()] = struct{}{}
	set := s.listeners[n.ID()]
	if set == nil {
		set = make(map[uuid.UUID]*session)
		s.listeners[n.ID()] = set
	}
	set[sess.id] = sess
	n.Listen()
	metrics.SetListeners(s.listenerCount())
}

func (s *Server) ignore(sess *session, n *query.Node) {
	if _, ok := sess.listening[n.ID()]; !ok {
		return
	}
	delete(sess.listening, n.ID())
	if set := s.listeners[n.ID()]; set != nil {
		delete(set, sess.id)
		if len(set) == 0 {
			delete(s.listeners, n.ID())
		}
	}
	n.Ignore()
	metrics.SetListeners(s.listenerCount())
}

func (s *Server) unregister(t *query.Tree, sess *session) {
	for id := range sess.listening {
		if n := t.Node(id); n != nil {
			s.ignore(sess, n)
		}
	}
	delete(s.sessions, sess.id)
}

func (s *Server) listenerCount() int {
	total := 0
	for _, set := range s.listeners {
		total += len(set)
	}
	return total
}

// push sends the new value of n to every listening session. Critical nodes
// always go over the WebSocket; others use the session's UDP stream when
// one was started.
func (s *Server) push(n *query.Node) {
	set := s.listeners[n.ID()]
	if len(set) == 0 {
		return
	}
	b, err := s.encode(n)
	if err != nil {
		s.log.Warn().Err(err).Str("address", n.Address()).Msg("encode update")
		return
	}
	for _, sess := range set {
		if sess.stream != nil && !n.Critical() {
			if _, err := s.udp.WriteToUDP(b, sess.stream); err != nil {
				s.log.Debug().Err(err).Stringer("to", sess.stream).Msg("stream update")
				continue
			}
			metrics.RecordSent(metrics.TransportUDP)
			continue
		}
		select {
		case sess.send <- b:
		default:
			metrics.RecordDropped(metrics.TransportWS, types.ErrBufferOverflow)
		}
	}
}

// encode builds the update message for n in the shared buffer and returns a
// copy that recipients may keep.
func (s *Server) encode(n *query.Node) ([]byte, error) {
	v := n.Value()
	if v.Type == types.TypeString {
		enc, err := s.opts.Charset.Encode(v.S)
		if err != nil {
			return nil, err
		}
		v.S = enc
	}
	size := message.Size(n.Address(), v)
	if size > len(s.encodeBuf) {
		s.encodeBuf = make([]byte, size)
	}
	b, err := message.Encode(s.encodeBuf[:size], n.Address(), v)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}
