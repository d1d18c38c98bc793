package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/osckit/osc/alloc"
	"github.com/joshuapare/osckit/osc/message"
	"github.com/joshuapare/osckit/osc/printer"
	"github.com/joshuapare/osckit/osc/query"
	"github.com/joshuapare/osckit/pkg/types"
	"github.com/joshuapare/osckit/server"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type fixture struct {
	srv  *server.Server
	base string
	stop func() error
}

func newTree(t *testing.T) *query.Tree {
	t.Helper()
	tr, err := query.New(alloc.NewHeap(0))
	require.NoError(t, err)

	_, err = tr.AddInt("/foo/bar/int", 42)
	require.NoError(t, err)
	_, err = tr.AddFloat("/foo/bar/float", 0.5)
	require.NoError(t, err)
	_, err = tr.AddContainer("/foo")
	require.NoError(t, err)
	n, err := tr.AddFloat("/crit", 1)
	require.NoError(t, err)
	n.SetFlags(query.FlagCritical)
	_, err = tr.AddString("/name", 32)
	require.NoError(t, err)
	return tr
}

func start(t *testing.T, tr *query.Tree) *fixture {
	t.Helper()
	srv, err := server.New(tr, server.Options{
		Name:   "test",
		Bind:   "127.0.0.1",
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var (
		once    sync.Once
		stopErr error
	)
	f := &fixture{
		srv:  srv,
		base: "http://" + srv.HTTPAddr().String(),
		stop: func() error {
			once.Do(func() {
				cancel()
				select {
				case stopErr = <-done:
				case <-time.After(waitFor):
					stopErr = context.DeadlineExceeded
				}
			})
			return stopErr
		},
	}
	t.Cleanup(func() { _ = f.stop() })
	return f
}

func get(t *testing.T, url string, hdr ...string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHTTP_Tree(t *testing.T) {
	f := start(t, newTree(t))

	status, body := get(t, f.base+"/foo")
	require.Equal(t, http.StatusOK, status)

	var doc printer.NodeDoc
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "/foo", doc.FullPath)
	require.Contains(t, doc.Contents, "bar")
	bar := doc.Contents["bar"]
	assert.Equal(t, "/foo/bar", bar.FullPath)
	require.Contains(t, bar.Contents, "int")
	assert.Equal(t, "i", bar.Contents["int"].Type)
	assert.Equal(t, []any{float64(42)}, bar.Contents["int"].Value)

	// trailing separator is ignored
	status, _ = get(t, f.base+"/foo/")
	assert.Equal(t, http.StatusOK, status)
}

func TestHTTP_Attributes(t *testing.T) {
	f := start(t, newTree(t))

	tests := []struct {
		name   string
		path   string
		status int
		want   map[string]any
	}{
		{"value", "/foo/bar/int?VALUE", http.StatusOK, map[string]any{"VALUE": []any{float64(42)}}},
		{"lowercase", "/foo/bar/int?type", http.StatusOK, map[string]any{"TYPE": "i"}},
		{"access", "/foo/bar/float?ACCESS", http.StatusOK, map[string]any{"ACCESS": float64(3)}},
		{"critical", "/crit?CRITICAL", http.StatusOK, map[string]any{"CRITICAL": true}},
		{"full path", "/foo?FULL_PATH", http.StatusOK, map[string]any{"FULL_PATH": "/foo"}},
		{"elided segment", "/foo/bar?VALUE", http.StatusNotFound, nil},
		{"missing node", "/nope", http.StatusNotFound, nil},
		{"unsupported", "/foo/bar/int?RANGE", http.StatusBadRequest, nil},
		{"container value", "/foo?VALUE", http.StatusNoContent, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, f.base+tt.path)
			require.Equal(t, tt.status, status, string(body))
			if tt.want == nil {
				return
			}
			var got map[string]any
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTP_HostInfo(t *testing.T) {
	f := start(t, newTree(t))

	status, body := get(t, f.base+"/?HOST_INFO")
	require.Equal(t, http.StatusOK, status)

	var info printer.HostInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "test", info.Name)
	assert.Equal(t, f.srv.OSCAddr().Port, info.OSCPort)
	assert.Equal(t, "UDP", info.OSCTransport)
	assert.True(t, info.Extensions["LISTEN"])
}

func TestHTTP_CBOR(t *testing.T) {
	f := start(t, newTree(t))

	status, body := get(t, f.base+"/foo/bar/int?VALUE", "Accept", "application/cbor")
	require.Equal(t, http.StatusOK, status)

	var got map[string]any
	require.NoError(t, printer.UnmarshalCBOR(body, &got))
	require.Contains(t, got, "VALUE")
	assert.Len(t, got["VALUE"], 1)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	f := start(t, newTree(t))

	resp, err := http.Post(f.base+"/foo", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTP_Metrics(t *testing.T) {
	f := start(t, newTree(t))
	get(t, f.base+"/foo")

	status, body := get(t, f.base+"/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "osckit_http_requests_total")
}

func TestUDP_Dispatch(t *testing.T) {
	f := start(t, newTree(t))

	conn, err := net.DialUDP("udp", nil, f.srv.OSCAddr())
	require.NoError(t, err)
	defer conn.Close()

	pkt, err := message.Encode(make([]byte, 64), "/foo/bar/int", types.Int(7))
	require.NoError(t, err)
	_, err = conn.Write(pkt)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := f.srv.Get(context.Background(), "/foo/bar/int")
		return err == nil && v.I == 7
	}, waitFor, tick)

	// garbage and unknown addresses are dropped without stopping the server
	_, err = conn.Write([]byte("garbage"))
	require.NoError(t, err)
	pkt, err = message.Encode(make([]byte, 64), "/nope", types.Int(1))
	require.NoError(t, err)
	_, err = conn.Write(pkt)
	require.NoError(t, err)

	pkt, err = message.Encode(make([]byte, 64), "/foo/bar/int", types.Int(8))
	require.NoError(t, err)
	_, err = conn.Write(pkt)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, err := f.srv.Get(context.Background(), "/foo/bar/int")
		return err == nil && v.I == 8
	}, waitFor, tick)
}

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+f.srv.HTTPAddr().String()+"/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func listening(f *fixture, addr string) func() bool {
	return func() bool {
		var ok bool
		err := f.srv.Do(context.Background(), func(tr *query.Tree) error {
			n, err := tr.Get(addr)
			if err != nil {
				return err
			}
			ok = n.Listening()
			return nil
		})
		return err == nil && ok
	}
}

func TestWS_ListenPush(t *testing.T) {
	f := start(t, newTree(t))
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(server.Command{Command: server.CmdListen, Data: json.RawMessage(`"/foo/bar/float"`)}))
	require.Eventually(t, listening(f, "/foo/bar/float"), waitFor, tick)

	require.NoError(t, f.srv.Set(context.Background(), "/foo/bar/float", types.Float(2.5)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)

	m, err := message.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "/foo/bar/float", m.Address())
	v, err := m.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), v)

	require.NoError(t, conn.WriteJSON(server.Command{Command: server.CmdIgnore, Data: json.RawMessage(`"/foo/bar/float"`)}))
	require.Eventually(t, func() bool { return !listening(f, "/foo/bar/float")() }, waitFor, tick)
}

func TestWS_BinaryDispatch(t *testing.T) {
	f := start(t, newTree(t))
	conn := dialWS(t, f)

	pkt, err := message.Encode(make([]byte, 64), "/name", types.String("hello"))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pkt))

	require.Eventually(t, func() bool {
		v, err := f.srv.Get(context.Background(), "/name")
		return err == nil && v.S == "hello"
	}, waitFor, tick)
}

func TestWS_Streaming(t *testing.T) {
	f := start(t, newTree(t))
	conn := dialWS(t, f)

	recv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer recv.Close()

	ports, err := json.Marshal(server.StreamPorts{ServerPort: recv.LocalAddr().(*net.UDPAddr).Port})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(server.Command{Command: server.CmdStartStreaming, Data: ports}))
	require.NoError(t, conn.WriteJSON(server.Command{Command: server.CmdListen, Data: json.RawMessage(`"/foo/bar/int"`)}))
	require.Eventually(t, listening(f, "/foo/bar/int"), waitFor, tick)

	require.NoError(t, f.srv.Set(context.Background(), "/foo/bar/int", types.Int(99)))

	buf := make([]byte, 512)
	require.NoError(t, recv.SetReadDeadline(time.Now().Add(waitFor)))
	n, _, err := recv.ReadFromUDP(buf)
	require.NoError(t, err)

	m, err := message.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, "/foo/bar/int", m.Address())
	v, err := m.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(99), v)
}

func TestWS_DisconnectDropsListeners(t *testing.T) {
	f := start(t, newTree(t))
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(server.Command{Command: server.CmdListen, Data: json.RawMessage(`"/crit"`)}))
	require.Eventually(t, listening(f, "/crit"), waitFor, tick)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !listening(f, "/crit")() }, waitFor, tick)
}

func TestSet_Errors(t *testing.T) {
	f := start(t, newTree(t))
	ctx := context.Background()

	err := f.srv.Set(ctx, "/nope", types.Int(1))
	require.ErrorIs(t, err, types.ErrNotFound)

	err = f.srv.Set(ctx, "/foo/bar/int", types.Float(1))
	require.ErrorIs(t, err, types.ErrTypeMismatch)

	require.NoError(t, f.stop())
	err = f.srv.Set(ctx, "/foo/bar/int", types.Int(1))
	require.ErrorIs(t, err, server.ErrClosed)
}

func TestNew_ChainsTreeCallback(t *testing.T) {
	var seen []string
	tr, err := query.New(alloc.NewHeap(0), query.WithCallback(func(n *query.Node) {
		seen = append(seen, n.Address())
	}))
	require.NoError(t, err)
	_, err = tr.AddInt("/x", 0)
	require.NoError(t, err)

	_, err = server.New(nil, server.Options{})
	require.Error(t, err)

	f := start(t, tr)
	require.NoError(t, f.srv.Set(context.Background(), "/x", types.Int(3)))
	require.NoError(t, f.stop())
	assert.Equal(t, []string{"/x"}, seen)
}
