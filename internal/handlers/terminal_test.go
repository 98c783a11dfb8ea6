package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/termfolio/internal/terminal"
)

func setupTerminalTestEnv(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	registry := terminal.NewRegistry()
	terminal.RegisterBuiltins(registry, terminal.Providers{})
	registry.MustRegister(terminal.Command{
		Name:    "ping",
		Summary: "Reply with pong.",
		Handler: func(ctx context.Context, req terminal.Request) ([]terminal.Block, error) {
			return []terminal.Block{terminal.Text("pong")}, nil
		},
	})

	dispatcher, err := terminal.NewDispatcher(registry, nil)
	require.NoError(t, err)

	handler := NewTerminalHandler(dispatcher)

	router := gin.New()
	router.GET("/api/terminal/commands", handler.Catalog)
	router.POST("/api/terminal/execute", handler.Execute)
	router.GET("/api/terminal/stream", handler.Stream)
	return router
}

func TestTerminalCatalogListsCommands(t *testing.T) {
	router := setupTerminalTestEnv(t)

	rec := doJSON(t, router, http.MethodGet, "/api/terminal/commands", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].([]any)
	require.NotEmpty(t, data)

	names := make([]string, 0, len(data))
	for _, entry := range data {
		names = append(names, entry.(map[string]any)["name"].(string))
	}
	require.Contains(t, names, "help")
	require.Contains(t, names, "ping")
}

func TestTerminalExecuteRunsCommand(t *testing.T) {
	router := setupTerminalTestEnv(t)

	rec := doJSON(t, router, http.MethodPost, "/api/terminal/execute", gin.H{
		"input": "ping",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "ping", data["command"])
	require.Equal(t, "ok", data["outcome"])

	blocks := data["blocks"].([]any)
	require.Len(t, blocks, 1)
	require.Equal(t, "pong", blocks[0].(map[string]any)["text"])
}

func TestTerminalExecuteSuggestsOnTypo(t *testing.T) {
	router := setupTerminalTestEnv(t)

	rec := doJSON(t, router, http.MethodPost, "/api/terminal/execute", gin.H{
		"input": "pong",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "unknown", data["outcome"])
	require.Equal(t, "ping", data["suggestion"])
}

func TestTerminalExecuteRejectsEmptyInput(t *testing.T) {
	router := setupTerminalTestEnv(t)

	rec := doJSON(t, router, http.MethodPost, "/api/terminal/execute", gin.H{}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type streamResult struct {
	Command    string           `json:"command"`
	Outcome    string           `json:"outcome"`
	Suggestion string           `json:"suggestion"`
	Blocks     []terminal.Block `json:"blocks"`
}

func dialTerminalStream(t *testing.T, router *gin.Engine) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	wsURL := strings.Replace(server.URL, "http", "ws", 1) + "/api/terminal/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestTerminalStreamDispatchesOverWebSocket(t *testing.T) {
	conn := dialTerminalStream(t, setupTerminalTestEnv(t))

	require.NoError(t, conn.WriteJSON(gin.H{"input": "ping"}))

	var result streamResult
	require.NoError(t, conn.ReadJSON(&result))
	require.Equal(t, "ping", result.Command)
	require.Equal(t, "ok", result.Outcome)
	require.Len(t, result.Blocks, 1)
	require.Equal(t, "pong", result.Blocks[0].Text)

	// The connection stays open for further commands.
	require.NoError(t, conn.WriteJSON(gin.H{"input": "nonsense-command"}))
	require.NoError(t, conn.ReadJSON(&result))
	require.Equal(t, "unknown", result.Outcome)
}

func TestTerminalStreamRejectsMalformedFrame(t *testing.T) {
	conn := dialTerminalStream(t, setupTerminalTestEnv(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	var result streamResult
	require.NoError(t, conn.ReadJSON(&result))
	require.Equal(t, "error", result.Outcome)

	// A bad frame does not kill the connection.
	require.NoError(t, conn.WriteJSON(gin.H{"input": "ping"}))
	require.NoError(t, conn.ReadJSON(&result))
	require.Equal(t, "ok", result.Outcome)
}

func TestTerminalStreamTracksConnectionHistory(t *testing.T) {
	conn := dialTerminalStream(t, setupTerminalTestEnv(t))

	var result streamResult
	for _, input := range []string{"ping", "help"} {
		require.NoError(t, conn.WriteJSON(gin.H{"input": input}))
		require.NoError(t, conn.ReadJSON(&result))
		require.Equal(t, "ok", result.Outcome)
	}

	require.NoError(t, conn.WriteJSON(gin.H{"input": "history"}))
	require.NoError(t, conn.ReadJSON(&result))
	require.Equal(t, "history", result.Command)
	require.Equal(t, "ok", result.Outcome)
	require.Len(t, result.Blocks, 3)
	require.Contains(t, result.Blocks[0].Text, "ping")
	require.Contains(t, result.Blocks[1].Text, "help")
	require.Contains(t, result.Blocks[2].Text, "history")
}

func TestTerminalStreamSurvivesSustainedTraffic(t *testing.T) {
	conn := dialTerminalStream(t, setupTerminalTestEnv(t))

	// Interleave many request/response pairs so pings from the write pump
	// overlap with command results on the same connection.
	var result streamResult
	for i := 0; i < 200; i++ {
		require.NoError(t, conn.WriteJSON(gin.H{"input": "ping"}))
		require.NoError(t, conn.ReadJSON(&result))
		require.Equal(t, "ok", result.Outcome)
	}
}
