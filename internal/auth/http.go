package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const originService = "UserAccountService"

// auditor dispatches best-effort audit entries; implemented by audit.Emitter.
type auditor interface {
	Emit(userID *uuid.UUID, action, description, service string)
}

// RegisterRoutes mounts authentication endpoints under /auth and the public
// profile lookup under /users.
func RegisterRoutes(router *gin.RouterGroup, service *Service, audit auditor) {
	handler := &httpHandler{service: service, audit: audit}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", handler.register)
		authGroup.POST("/login", handler.login)
	}
	router.GET("/users/:userID", handler.getUser)
}

type httpHandler struct {
	service *Service
	audit   auditor
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Username string `json:"username" binding:"omitempty,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	} `json:"token"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Register(c.Request.Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			h.audit.Emit(nil, "REGISTER", "User already exists with this email", originService)
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case ErrInvalidCredentials:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		default:
			h.audit.Emit(nil, "REGISTER", "Error: "+err.Error(), originService)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		}
		return
	}

	userID := result.User.ID
	h.audit.Emit(&userID, "REGISTER", "User registered successfully", originService)
	c.JSON(http.StatusCreated, marshalAuthResponse(result))
}

func (h *httpHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Login(c.Request.Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			h.audit.Emit(nil, "LOGIN", "Invalid credentials", originService)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			h.audit.Emit(nil, "LOGIN", "Error: "+err.Error(), originService)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		}
		return
	}

	userID := result.User.ID
	h.audit.Emit(&userID, "LOGIN", "User logged in successfully", originService)
	c.JSON(http.StatusOK, marshalAuthResponse(result))
}

func (h *httpHandler) getUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		if err == ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": marshalUser(user)})
}

func marshalAuthResponse(result AuthResult) authResponse {
	resp := authResponse{User: marshalUser(result.User)}
	resp.Token.AccessToken = result.Token.Token
	resp.Token.ExpiresAt = result.Token.ExpiresAt.Unix()
	return resp
}

func marshalUser(user User) userResponse {
	resp := userResponse{
		ID:       user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}
	if !user.CreatedAt.IsZero() {
		created := user.CreatedAt.UTC()
		resp.CreatedAt = &created
	}
	return resp
}
