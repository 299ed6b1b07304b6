package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shawgichan/lucid/internal/api/response"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/session"
	"github.com/shawgichan/lucid/internal/token"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeaderKey  = "authorization"
	authorizationTypeBearer = "bearer"
	authorizationPayloadKey = "authorization_payload"
	sessionStateKey         = "session_state"
)

// authMiddleware creates a gin middleware for authorization
func authMiddleware(tokenMaker token.Maker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorizationHeader := c.GetHeader(authorizationHeaderKey)
		if len(authorizationHeader) == 0 {
			response.Unauthorized(c, "authorization header is not provided")
			return
		}

		fields := strings.Fields(authorizationHeader)
		if len(fields) < 2 {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		authType := strings.ToLower(fields[0])
		if authType != authorizationTypeBearer {
			response.Unauthorized(c, fmt.Sprintf("unsupported authorization type %s", authType))
			return
		}

		accessToken := fields[1]
		payload, err := tokenMaker.VerifyToken(accessToken)
		if err != nil {
			if errors.Is(err, token.ErrExpiredToken) {
				response.RespondError(c, http.StatusUnauthorized, "token has expired", "expired_token")
				return
			}
			response.Unauthorized(c, "invalid access token")
			return
		}

		c.Set(authorizationPayloadKey, payload)
		c.Next()
	}
}

// sessionMiddleware loads the session State named by the token. A token whose
// session has ended is treated as logged out.
func sessionMiddleware(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := c.MustGet(authorizationPayloadKey).(*token.Payload)

		st, ok := sessions.Get(payload.SessionID)
		if !ok || st.Username != payload.Username {
			response.Unauthorized(c, "session not found, please log in")
			return
		}

		c.Set(sessionStateKey, st)
		c.Next()
	}
}

func requestLogger(logger *applogger.AppLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", args...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", args...)
		default:
			logger.Info("Request handled", args...)
		}
	}
}

func authPayload(c *gin.Context) *token.Payload {
	return c.MustGet(authorizationPayloadKey).(*token.Payload)
}

func sessionState(c *gin.Context) session.State {
	return c.MustGet(sessionStateKey).(session.State)
}
