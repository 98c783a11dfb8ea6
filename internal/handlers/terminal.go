package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/termfolio/internal/terminal"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/logger"
	"github.com/charlesng35/termfolio/pkg/response"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second

	// streamHistoryMax caps how many input lines a single connection retains.
	streamHistoryMax = 100
)

// TerminalHandler serves the public command API: a catalog of commands, a
// one-shot execute endpoint, and a WebSocket stream for interactive sessions.
type TerminalHandler struct {
	dispatcher *terminal.Dispatcher
}

func NewTerminalHandler(dispatcher *terminal.Dispatcher) *TerminalHandler {
	return &TerminalHandler{dispatcher: dispatcher}
}

// GET /api/terminal/commands
func (h *TerminalHandler) Catalog(c *gin.Context) {
	commands := h.dispatcher.Registry().Commands()

	payload := make([]gin.H, 0, len(commands))
	for _, cmd := range commands {
		payload = append(payload, gin.H{
			"name":    cmd.Name,
			"aliases": cmd.Aliases,
			"summary": cmd.Summary,
			"usage":   cmd.Usage,
		})
	}

	response.Success(c, http.StatusOK, payload)
}

type executeRequest struct {
	Input string `json:"input" validate:"required,max=512"`
}

// POST /api/terminal/execute
func (h *TerminalHandler) Execute(c *gin.Context) {
	var req executeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), req.Input, terminal.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})

	response.Success(c, http.StatusOK, result)
}

// streamFrame is one client request on the interactive stream.
type streamFrame struct {
	Input string `json:"input"`
}

// GET /api/terminal/stream
//
// The client sends JSON frames {"input": "..."}; each reply is a JSON dispatch
// result. The connection keeps its own input history, served by the history
// command, and stays open until the client disconnects.
func (h *TerminalHandler) Stream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			return hostWithoutPort(origin) == hostWithoutPort(r.Host)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		response.Error(c, errors.NewBadRequest("websocket upgrade failed"))
		return
	}
	defer conn.Close()

	client := terminal.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	// All writes, pings included, go through a single pump goroutine. The
	// connection does not support concurrent writers.
	out := make(chan terminal.Result, 8)
	stop := make(chan struct{})
	pumpDone := make(chan struct{})
	go h.writePump(conn, out, stop, pumpDone)
	defer close(stop)

	history := make([]string, 0, 16)
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithModule("terminal").Debug("stream closed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var frame streamFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			if !deliver(out, pumpDone, terminal.Result{
				Outcome: terminal.OutcomeError,
				Blocks:  []terminal.Block{terminal.Text(`send frames as {"input": "<command>"}`)},
			}) {
				return
			}
			continue
		}

		line := strings.TrimSpace(frame.Input)
		if line != "" {
			history = append(history, line)
			if len(history) > streamHistoryMax {
				history = history[len(history)-streamHistoryMax:]
			}
		}

		var result terminal.Result
		if h.isHistoryCommand(line) {
			result = terminal.Result{
				Command: "history",
				Outcome: terminal.OutcomeOK,
				Blocks:  terminal.HistoryBlocks(history),
			}
		} else {
			result = h.dispatcher.Dispatch(c.Request.Context(), line, client)
		}

		if !deliver(out, pumpDone, result) {
			return
		}
	}
}

// writePump is the sole writer on the connection: it serialises dispatch
// results and keepalive pings. A write failure closes the connection so the
// read loop unblocks.
func (h *TerminalHandler) writePump(conn *websocket.Conn, out <-chan terminal.Result, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case result := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(result); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-stop:
			return
		}
	}
}

// deliver hands a result to the pump, bailing out if the pump already exited.
func deliver(out chan<- terminal.Result, pumpDone <-chan struct{}, result terminal.Result) bool {
	select {
	case out <- result:
		return true
	case <-pumpDone:
		return false
	}
}

// isHistoryCommand reports whether the line invokes the history command, which
// the stream answers from its per-connection history.
func (h *TerminalHandler) isHistoryCommand(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, found := h.dispatcher.Registry().Lookup(fields[0])
	return found && cmd.Name == "history"
}

func hostWithoutPort(value string) string {
	value = strings.TrimSpace(value)
	if parsed, err := url.Parse(value); err == nil && parsed.Host != "" {
		value = parsed.Host
	}
	if idx := strings.LastIndex(value, ":"); idx > 0 && !strings.Contains(value[idx:], "]") {
		value = value[:idx]
	}
	return strings.ToLower(value)
}
