package api

import (
	"errors"

	"github.com/shawgichan/lucid/internal/api/response"
	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/services"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerUser(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Invalid registration request", "error", err)
		response.BadRequest(c, "Invalid request payload", err.Error())
		return
	}

	loginResp, err := s.authService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			s.logger.Info("Registration attempt for existing username", "username", req.Username)
			response.Conflict(c, services.ErrUserAlreadyExists.Error())
			return
		}
		s.logger.Error("User registration service error", "username", req.Username, "error", err)
		response.InternalServerError(c, "Failed to register user", err)
		return
	}

	response.Created(c, loginResp, "User registered successfully")
}

func (s *Server) loginUser(c *gin.Context) {
	var req models.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Invalid login request", "error", err)
		response.BadRequest(c, "Invalid request payload", err.Error())
		return
	}

	loginResp, err := s.authService.Login(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			s.logger.Warn("Invalid login attempt", "username", req.Username)
			response.Unauthorized(c, services.ErrInvalidCredentials.Error())
			return
		}
		s.logger.Error("User login service error", "username", req.Username, "error", err)
		response.InternalServerError(c, "Failed to log in", err)
		return
	}

	response.Ok(c, loginResp, "Login successful")
}

func (s *Server) logoutUser(c *gin.Context) {
	s.authService.Logout(authPayload(c))
	response.Ok(c, nil, "Logout successful")
}
