package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/usiug6/auth-service/internal/adapters/transport/http/dto"
	"github.com/usiug6/auth-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/usiug6/auth-service/internal/app/auth/service"
	authErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/infra/health"
	lg "github.com/usiug6/auth-service/internal/infra/log"
	"go.uber.org/zap"
)

const (
	msgRegistered    = "Registration successful"
	msgLoggedIn      = "Login successful"
	msgLoggedOut     = "Logout successful"
	msgResetSent     = "If the email exists, a reset link has been sent"
	msgResetComplete = "Password reset successful"
	msgBadBody       = "Request body must be a JSON object"
)

type Handler struct {
	svc    appsvc.Service
	health *health.Checker
	log    *zap.Logger
}

func NewHandler(svc appsvc.Service, checker *health.Checker, log *zap.Logger) *Handler {
	return &Handler{svc: svc, health: checker, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if !bind(c, &body) {
		return
	}
	h.log.Info("/register", lg.Email(body.Email))

	sess, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session(msgRegistered, sess))
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if !bind(c, &body) {
		return
	}
	h.log.Info("/login", lg.Email(body.Email))

	sess, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session(msgLoggedIn, sess))
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.Token(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgLoggedOut})
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.Token(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserResponse{User: dto.FromUser(user)})
}

// VerifyToken answers {"valid": bool} even when the header is absent or a
// dependency fails; a failure never reads as a valid token.
func (h *Handler) VerifyToken(c *gin.Context) {
	token, ok := middleware.ParseBearer(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.VerifyResponse{Valid: false})
		return
	}

	valid, err := h.svc.VerifyToken(c.Request.Context(), token)
	if valid {
		c.JSON(http.StatusOK, dto.VerifyResponse{Valid: true})
		return
	}
	if authErrors.IsInternal(err) {
		_ = c.Error(err)
	}
	c.JSON(http.StatusUnauthorized, dto.VerifyResponse{Valid: false})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var body dto.ForgotPasswordDTO
	if !bind(c, &body) {
		return
	}
	h.log.Info("/forgot-password", lg.Email(body.Email))

	if err := h.svc.ForgotPassword(c.Request.Context(), body); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgResetSent})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var body dto.ResetPasswordDTO
	if !bind(c, &body) {
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), body); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgResetComplete})
}

func (h *Handler) Health(c *gin.Context) {
	rep := h.health.Check(c.Request.Context())
	code := http.StatusOK
	if !rep.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, rep)
}

func bind(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgBadBody})
		return false
	}
	return true
}

func session(msg string, s model.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Message:     msg,
		AccessToken: s.Token.Token,
		User:        dto.FromUser(s.User),
	}
}

func handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: authErrors.Message(err)})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Email already registered"})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid email or password"})
	case authErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid or expired token"})
	case authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
	case authErrors.IsInvalidResetToken(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired reset token"})
	case authErrors.IsExpiredResetToken(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Reset token has expired"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
