package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/models"
)

// WebSocket message types for the job stream
const (
	// Client -> Server messages
	MsgTypePing  = "ping"
	MsgTypeWatch = "watch"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeJob       = "job"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const (
	wsSendBuffer = 64
	wsWriteWait  = 10 * time.Second
)

// WSMessage is the envelope for every frame on the job stream
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams job updates from the job manager to websocket clients
type WebSocketHandler struct {
	jobs     JobRunner
	upgrader websocket.Upgrader
	log      *log.Logger
}

// NewWebSocketHandler creates a new job stream handler
func NewWebSocketHandler(jobs JobRunner) *WebSocketHandler {
	return &WebSocketHandler{
		jobs: jobs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		log: logging.WithPrefix("ws"),
	}
}

// HandleJobStream upgrades the connection and forwards job updates. With ?job=<id>
// (or a later "watch" message) only that job is forwarded.
func (wsh *WebSocketHandler) HandleJobStream(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	wsh.log.Debug("client connected", "remote", c.RealIP())

	send := make(chan WSMessage, wsSendBuffer)
	watch := make(chan string, 1)
	done := make(chan struct{})

	unsubscribe := wsh.jobs.Subscribe(func(job models.Job) {
		msg := WSMessage{
			Type:      MsgTypeJob,
			ID:        job.ID,
			Payload:   mustJSON(job),
			Timestamp: time.Now().UnixMilli(),
		}
		select {
		case send <- msg:
		case <-done:
		default:
			// slow client, drop the update
		}
	})
	defer unsubscribe()

	// Writer: owns the connection for writes and applies the job filter
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		filter := c.QueryParam("job")
		if job, ok := wsh.jobs.GetJob(filter); filter != "" && ok {
			wsh.write(ws, WSMessage{Type: MsgTypeJob, ID: job.ID, Payload: mustJSON(job)})
		}
		for {
			select {
			case <-done:
				return
			case id := <-watch:
				filter = id
			case msg := <-send:
				if msg.Type == MsgTypeJob && filter != "" && msg.ID != filter {
					continue
				}
				if err := wsh.write(ws, msg); err != nil {
					ws.Close()
					return
				}
			}
		}
	}()

	enqueue := func(msg WSMessage) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	enqueue(WSMessage{Type: MsgTypeConnected})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsh.log.Debug("connection error", "err", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			enqueue(WSMessage{Type: MsgTypePong})
		case MsgTypeWatch:
			select {
			case watch <- msg.ID:
			default:
			}
		default:
			enqueue(WSMessage{Type: MsgTypeError, Payload: mustJSON(map[string]string{
				"message": "Unknown message type: " + msg.Type,
				"code":    "INVALID_TYPE",
			})})
		}
	}

	close(done)
	<-writerDone
	wsh.log.Debug("client disconnected")
	return nil
}

func (wsh *WebSocketHandler) write(ws *websocket.Conn, msg WSMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.WriteJSON(msg)
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
