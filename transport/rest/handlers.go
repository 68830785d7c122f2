package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

func (that *Server) ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (that *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Sessions: that.coordinator.SessionCount()})
}

func (that *Server) createSession(c *gin.Context) {
	var req playerRequest
	if !that.bind(c, &req) {
		return
	}

	admission, err := that.coordinator.CreateSession(c.Request.Context(), req.PlayerName)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, admission)
}

func (that *Server) joinSession(c *gin.Context) {
	var req playerRequest
	if !that.bind(c, &req) {
		return
	}

	admission, err := that.coordinator.JoinSession(c.Request.Context(), c.Param("code"), req.PlayerName)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, admission)
}

func (that *Server) startSession(c *gin.Context) {
	var req startRequest
	if !that.bind(c, &req) {
		return
	}

	result, err := that.coordinator.StartSession(c.Request.Context(), c.Param("code"), req.ParticipantID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (that *Server) submitMove(c *gin.Context) {
	var req moveRequest
	if !that.bind(c, &req) {
		return
	}

	snapshot, err := that.coordinator.SubmitMove(c.Request.Context(), c.Param("code"), req.ParticipantID, *req.Cell)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (that *Server) resetSession(c *gin.Context) {
	if err := that.coordinator.ResetSession(c.Request.Context(), c.Param("code")); err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (that *Server) getSnapshot(c *gin.Context) {
	snapshot, err := that.coordinator.GetSnapshot(c.Request.Context(), c.Param("code"))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (that *Server) getMirrored(c *gin.Context) {
	snapshot, err := that.mirror.Latest(c.Request.Context(), c.Param("code"))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (that *Server) removeSession(c *gin.Context) {
	that.coordinator.RemoveSession(c.Request.Context(), c.Param("code"))

	c.Status(http.StatusNoContent)
}

func (that *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		that.fail(c, fmt.Errorf("%w: %s", apperror.ErrInvalidInput, err.Error()))
		return false
	}

	return true
}

func (that *Server) fail(c *gin.Context, err error) {
	kind := apperror.KindOf(err)

	message := err.Error()
	if kind == apperror.KindInternal {
		that.logger.Error("request failed", "path", c.FullPath(), "error", err)
		message = "internal error"
	}

	c.AbortWithStatusJSON(statusOf(kind), errorResponse{
		Error: errorBody{
			Code:    apperror.Code(err),
			Message: message,
		},
	})
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusForbidden
	case apperror.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
