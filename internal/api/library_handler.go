package api

import (
	"errors"

	"github.com/shawgichan/lucid/internal/api/response"
	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/services"

	"github.com/gin-gonic/gin"
)

func (s *Server) listHistory(c *gin.Context) {
	username := authPayload(c).Username

	history, err := s.searchService.History(c.Request.Context(), username)
	if err != nil {
		s.logger.Error("Failed to list history", "username", username, "error", err)
		response.InternalServerError(c, "Failed to retrieve search history", err)
		return
	}
	response.Ok(c, history)
}

func (s *Server) listBookmarks(c *gin.Context) {
	username := authPayload(c).Username

	bookmarks, err := s.searchService.Bookmarks(c.Request.Context(), username)
	if err != nil {
		s.logger.Error("Failed to list bookmarks", "username", username, "error", err)
		response.InternalServerError(c, "Failed to retrieve bookmarks", err)
		return
	}
	response.Ok(c, bookmarks)
}

func (s *Server) storeCredential(c *gin.Context) {
	var req models.StoreCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload", err.Error())
		return
	}

	username := authPayload(c).Username
	if err := s.searchService.StoreCredential(c.Request.Context(), username, req.APIKey); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			response.BadRequest(c, "api_key must not be blank")
			return
		}
		s.logger.Error("Failed to store credential", "username", username, "error", err)
		response.InternalServerError(c, "Failed to store API key", err)
		return
	}

	s.logger.Info("API key stored", "username", username)
	response.Ok(c, models.CredentialResponse{Stored: true}, "API key stored")
}
