package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshuapare/osckit/internal/logging"
	"github.com/joshuapare/osckit/internal/metrics"
	"github.com/joshuapare/osckit/osc/printer"
	"github.com/joshuapare/osckit/osc/query"
	"github.com/joshuapare/osckit/pkg/types"
)

const mimeCBOR = "application/cbor"

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestLogger(s.log))
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// Node addresses are arbitrary paths, so everything else lands here.
	r.NoRoute(s.handleQuery)
	return r
}

// handleQuery answers OSCQuery requests: GET /addr for the subtree, GET
// /addr?ATTR for one attribute and GET /?HOST_INFO for host information.
// A WebSocket upgrade on any path opens a listen session.
func (s *Server) handleQuery(c *gin.Context) {
	if websocket.IsWebSocketUpgrade(c.Request) {
		s.handleWS(c)
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	addr := c.Request.URL.Path
	if len(addr) > 1 {
		addr = strings.TrimSuffix(addr, "/")
	}
	attr := strings.ToUpper(c.Request.URL.RawQuery)

	if attr == printer.AttrHostInfo {
		s.respond(c, http.StatusOK, printer.NewHostInfo(s.opts.Name, s.oscPort()))
		return
	}

	var out any
	err := s.Do(c.Request.Context(), func(t *query.Tree) error {
		n, err := t.Get(addr)
		if err != nil {
			return err
		}
		if attr == "" {
			out = printer.Document(n, 0)
			return nil
		}
		v, err := printer.Attribute(n, attr)
		if err != nil {
			return err
		}
		out = map[string]any{attr: v}
		return nil
	})
	if err != nil {
		status := statusOf(err)
		if status == http.StatusNoContent {
			c.Status(status)
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, http.StatusOK, out)
}

// respond encodes v as CBOR when the client asks for it, JSON otherwise.
func (s *Server) respond(c *gin.Context, status int, v any) {
	if strings.Contains(c.GetHeader("Accept"), mimeCBOR) {
		data, err := printer.Marshal(v, printer.FormatCBOR)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(status, mimeCBOR, data)
		return
	}
	c.JSON(status, v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrAddressInvalid):
		return http.StatusNotFound
	case errors.Is(err, types.ErrAttributeUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, printer.ErrNoValue):
		return http.StatusNoContent
	case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// oscPort is the bound UDP port, or the configured one before Listen.
func (s *Server) oscPort() int {
	if a := s.OSCAddr(); a != nil {
		return a.Port
	}
	return s.opts.OSCPort
}
