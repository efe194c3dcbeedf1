// Package identity exposes account routes and the bearer-token middleware.
package identity

import (
	"errors"
	"net/http"

	"github.com/beka-birhanu/vinom-labyrinth/identity"
	"github.com/beka-birhanu/vinom-labyrinth/service"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
)

// IdentityServer handles HTTP requests related to authentication.
type IdentityServer struct {
	authService i.Authenticator
}

// NewIdentityServer creates a new IdentityServer.
func NewIdentityServer(a i.Authenticator) *IdentityServer {
	return &IdentityServer{
		authService: a,
	}
}

// RegisterPublic registers public routes.
func (c *IdentityServer) RegisterPublic(route *gin.RouterGroup) {
	auth := route.Group("/auth")
	{
		auth.POST("/register", c.registerUser)
		auth.POST("/login", c.login)
	}
}

// RegisterProtected registers privileged routes.
func (c *IdentityServer) RegisterProtected(route *gin.RouterGroup) {
	route.GET("/auth/me", c.me)
}

// registerUser handles user registration.
func (c *IdentityServer) registerUser(ctx *gin.Context) {
	var request AuthRequest

	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := c.authService.Register(request.Username, request.Password)
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case isInputError(err):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
		return
	}

	response := gin.H{"message": "User registered successfully"}
	ctx.JSON(http.StatusCreated, response)
}

// login handles user login.
func (c *IdentityServer) login(ctx *gin.Context) {
	var request AuthRequest

	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := c.authService.SignIn(request.Username, request.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	response := &AuthResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		GamesPlayed: user.GamesPlayed,
		Wins:        user.Wins,
		Token:       token,
	}
	ctx.JSON(http.StatusOK, response)
}

// me echoes the identity the request acts as.
func (c *IdentityServer) me(ctx *gin.Context) {
	who, ok := Acting(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"playerId":      who.PlayerID,
		"displayName":   who.DisplayName,
		"actingAs":      who.Effective(),
		"debugOverride": who.IsDebug(),
	})
}

func isInputError(err error) bool {
	return errors.Is(err, identity.ErrUsernameTooShort) ||
		errors.Is(err, identity.ErrUsernameTooLong) ||
		errors.Is(err, identity.ErrUsernameFormat) ||
		errors.Is(err, identity.ErrWeakPassword)
}
