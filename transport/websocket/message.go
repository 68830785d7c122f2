package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	actionCreate   = "session:create"
	actionJoin     = "session:join"
	actionStart    = "session:start"
	actionMove     = "session:move"
	actionReset    = "session:reset"
	actionState    = "session:state"
	actionSnapshot = "session:snapshot"
	actionUnknown  = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is what the server writes back: a reply to the requester or a pushed snapshot.
type Response struct {
	Action  string     `json:"action"`
	Payload any        `json:"payload,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(err error) *ErrorBody {
	message := err.Error()
	if apperror.KindOf(err) == apperror.KindInternal {
		message = "internal error"
	}

	return &ErrorBody{
		Code:    apperror.Code(err),
		Message: message,
	}
}

type createPayload struct {
	PlayerName string `json:"player_name"`
}

type joinPayload struct {
	Code       string `json:"code" validate:"required"`
	PlayerName string `json:"player_name"`
}

type intentPayload struct {
	Code          string `json:"code" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

type movePayload struct {
	Code          string `json:"code" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
	Cell          *int   `json:"cell" validate:"required"`
}

type codePayload struct {
	Code string `json:"code" validate:"required"`
}
