package api

import (
	"errors"

	"github.com/shawgichan/lucid/internal/api/response"
	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/session"

	"github.com/gin-gonic/gin"
)

type actionResponse struct {
	View    session.MainView `json:"view"`
	Notices []session.Notice `json:"notices"`
}

func (s *Server) getSession(c *gin.Context) {
	view, err := s.controller.View(c.Request.Context(), sessionState(c))
	if err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			response.Unauthorized(c, "please log in")
			return
		}
		s.logger.Error("Failed to build main view", "username", authPayload(c).Username, "error", err)
		response.InternalServerError(c, "Failed to load session", err)
		return
	}
	response.Ok(c, view)
}

func (s *Server) dispatchAction(c *gin.Context) {
	var req models.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Invalid action request", "error", err)
		response.BadRequest(c, "Invalid request payload", err.Error())
		return
	}

	action, err := session.ActionFromRequest(req)
	if err != nil {
		response.BadRequest(c, "Invalid action", err.Error())
		return
	}

	payload := authPayload(c)
	ctx := c.Request.Context()

	next, notices, err := s.controller.Dispatch(ctx, sessionState(c), action)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotLoggedIn):
			response.Unauthorized(c, "please log in")
		case errors.Is(err, session.ErrUnknownAction):
			response.BadRequest(c, "Invalid action", err.Error())
		default:
			s.logger.Error("Action failed", "username", payload.Username, "action", action.Name, "error", err)
			response.InternalServerError(c, "Failed to perform action", err)
		}
		return
	}

	if !s.sessions.Put(payload.SessionID, next) {
		response.Unauthorized(c, "session ended, please log in")
		return
	}

	view, err := s.controller.View(ctx, next)
	if err != nil {
		s.logger.Error("Failed to build main view", "username", payload.Username, "error", err)
		response.InternalServerError(c, "Failed to load session", err)
		return
	}

	if notices == nil {
		notices = []session.Notice{}
	}
	response.Ok(c, actionResponse{View: view, Notices: notices})
}
