package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const (
	defaultSendBuffer = 64
	shutdownTimeout   = 5 * time.Second
)

type sessionCoordinator interface {
	CreateSession(ctx context.Context, name string) (usecase.Admission, error)
	JoinSession(ctx context.Context, code, name string) (usecase.Admission, error)
	StartSession(ctx context.Context, code, participantID string) (usecase.StartResult, error)
	SubmitMove(ctx context.Context, code, participantID string, cell int) (entity.Snapshot, error)
	ResetSession(ctx context.Context, code string) error
	GetSnapshot(ctx context.Context, code string) (entity.Snapshot, error)
}

type handlerFunc func(ctx context.Context, c *client, message *Message) (any, error)

type Server struct {
	logger      *slog.Logger
	coordinator sessionCoordinator
	hub         *hub
	upgrader    websocket.Upgrader
	validate    *validator.Validate
	sendBuffer  int

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, sendBuffer int) *Server {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}

	logger = logger.With("component", "websocket")

	server := &Server{
		logger:     logger,
		hub:        newHub(logger),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionCreate] = server.handleCreate
	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionStart] = server.handleStart
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionReset] = server.handleReset
	server.handlers[actionState] = server.handleState

	return server
}

// SetCoordinator - the coordinator broadcasts through this server, so it is
// attached after both are built.
func (that *Server) SetCoordinator(coordinator sessionCoordinator) {
	that.coordinator = coordinator
}

// Broadcast - pushes the snapshot to every connection following its session.
func (that *Server) Broadcast(_ context.Context, snapshot entity.Snapshot) {
	data, err := json.Marshal(Response{Action: actionSnapshot, Payload: snapshot})
	if err != nil {
		that.logger.Error("failed to marshal snapshot", "code", snapshot.Code, "error", err)
		return
	}

	that.hub.broadcast(snapshot.Code, data)
}

// Forget - drops the broadcast group of a removed session.
func (that *Server) Forget(_ context.Context, code string) {
	that.hub.forget(pkg.CanonicalCode(code))
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(pkg.GenerateParticipantID(), conn, that.sendBuffer)
	log = log.With("connection", c.id)
	log.Info("WebSocket connection established")

	go c.writePump()

	defer func() {
		that.hub.drop(c)
		c.close()
		log.Info("WebSocket connection closed")
	}()

	that.handleMessages(req.Context(), c, log)
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, c *client, log *slog.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.reply(c, actionUnknown, nil, fmt.Errorf("%w: malformed message", apperror.ErrInvalidInput))
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.reply(c, message.Action, nil, fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidInput, message.Action))
			continue
		}

		payload, err := handler(ctx, c, &message)
		that.reply(c, message.Action, payload, err)
	}
}

// reply answers the requester only.
func (that *Server) reply(c *client, action string, payload any, err error) {
	response := Response{Action: action, Payload: payload}
	if err != nil {
		response = Response{Action: action, Error: errorBody(err)}
	}

	data, err := json.Marshal(response)
	if err != nil {
		that.logger.Error("failed to marshal reply", "action", action, "error", err)
		return
	}

	if !c.enqueue(data) {
		that.logger.Warn("dropping slow connection", "connection", c.id)
		that.hub.drop(c)
		c.close()
	}
}
