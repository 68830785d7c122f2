package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

func (that *Server) decode(message *Message, payload any) error {
	if len(message.Payload) == 0 {
		return fmt.Errorf("%w: payload is required", apperror.ErrInvalidInput)
	}

	if err := json.Unmarshal(message.Payload, payload); err != nil {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidInput, err.Error())
	}

	if err := that.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidInput, err.Error())
	}

	return nil
}

// follow subscribes c to code before running fn, so the broadcast caused by
// fn reaches c too. A subscription added here is undone when fn fails.
func (that *Server) follow(c *client, code string, fn func() (any, error)) (any, error) {
	code = pkg.CanonicalCode(code)
	added := that.hub.subscribe(code, c)

	result, err := fn()
	if err != nil && added {
		that.hub.unsubscribe(code, c)
	}

	return result, err
}

func (that *Server) handleCreate(ctx context.Context, c *client, message *Message) (any, error) {
	var payload createPayload
	if err := that.decode(message, &payload); err != nil {
		return nil, err
	}

	admission, err := that.coordinator.CreateSession(ctx, payload.PlayerName)
	if err != nil {
		return nil, err
	}

	that.hub.subscribe(admission.Code, c)

	return admission, nil
}

func (that *Server) handleJoin(ctx context.Context, c *client, message *Message) (any, error) {
	var payload joinPayload
	if err := that.decode(message, &payload); err != nil {
		return nil, err
	}

	return that.follow(c, payload.Code, func() (any, error) {
		return that.coordinator.JoinSession(ctx, payload.Code, payload.PlayerName)
	})
}

func (that *Server) handleStart(ctx context.Context, c *client, message *Message) (any, error) {
	var payload intentPayload
	if err := that.decode(message, &payload); err != nil {
		return nil, err
	}

	return that.follow(c, payload.Code, func() (any, error) {
		return that.coordinator.StartSession(ctx, payload.Code, payload.ParticipantID)
	})
}

func (that *Server) handleMove(ctx context.Context, c *client, message *Message) (any, error) {
	var payload movePayload
	if err := that.decode(message, &payload); err != nil {
		return nil, err
	}

	return that.follow(c, payload.Code, func() (any, error) {
		return that.coordinator.SubmitMove(ctx, payload.Code, payload.ParticipantID, *payload.Cell)
	})
}

func (that *Server) handleReset(ctx context.Context, c *client, message *Message) (any, error) {
	var payload codePayload
	if err := that.decode(message, &payload); err != nil {
		return nil, err
	}

	return that.follow(c, payload.Code, func() (any, error) {
		if err := that.coordinator.ResetSession(ctx, payload.Code); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})
}

func (that *Server) handleState(ctx context.Context, c *client, message *Message) (any, error) {
	var payload codePayload
	if err := that.decode(message, &payload); err != nil {
		return nil, err
	}

	return that.follow(c, payload.Code, func() (any, error) {
		return that.coordinator.GetSnapshot(ctx, payload.Code)
	})
}
