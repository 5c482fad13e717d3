// Package tool exposes the login operations as MCP tools.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/auth/providers"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Tool names
const (
	LoginStatusTool = "spotify_login_status"
	SignInTool      = "spotify_sign_in"
	SignOutTool     = "spotify_sign_out"
)

// LoginService is what the tools call into
type LoginService interface {
	GetLoginStatus(ctx context.Context) (*models.SocialUser, error)
	SignIn(ctx context.Context) (*models.SocialUser, error)
	SignOut(ctx context.Context) error
}

// HandlerFunc is the MCP tool handler signature
type HandlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Handler builds tool handlers over a LoginService.
type Handler struct {
	service LoginService
}

// NewHandler creates a new tool handler.
func NewHandler(service LoginService) *Handler {
	return &Handler{service: service}
}

// Tools returns every tool with its handler
func (h *Handler) Tools() map[string]struct {
	Tool    mcp.Tool
	Handler HandlerFunc
} {
	return map[string]struct {
		Tool    mcp.Tool
		Handler HandlerFunc
	}{
		LoginStatusTool: {
			Tool:    mcp.NewTool(LoginStatusTool, mcp.WithDescription("Returns the Spotify user whose credential is stored, or reports that nobody is logged in")),
			Handler: h.LoginStatus,
		},
		SignInTool: {
			Tool:    mcp.NewTool(SignInTool, mcp.WithDescription("Opens the Spotify authorization page in the browser and waits for the user to sign in")),
			Handler: h.SignIn,
		},
		SignOutTool: {
			Tool:    mcp.NewTool(SignOutTool, mcp.WithDescription("Forgets the stored Spotify credential")),
			Handler: h.SignOut,
		},
	}
}

// userResult is the user as shown to a client. The access token stays out.
type userResult struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl"`
}

func userToResult(name string, user *models.SocialUser) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(userResult{
		Provider: user.Provider,
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		PhotoURL: user.PhotoURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode result for tool %s: %w", name, err)
	}
	return mcp.NewToolResultText(string(body)), nil
}

// errorToResult reports a failed operation to the client as a tool error
func errorToResult(name string, err error) *mcp.CallToolResult {
	if !errors.Is(err, providers.ErrNotLoggedIn) {
		logger.Warn("Tool call failed", zap.String("tool", name), zap.Error(err))
	}
	return mcp.NewToolResultError(err.Error())
}

// LoginStatus handles spotify_login_status
func (h *Handler) LoginStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := h.service.GetLoginStatus(ctx)
	if err != nil {
		return errorToResult(LoginStatusTool, err), nil
	}
	return userToResult(LoginStatusTool, user)
}

// SignIn handles spotify_sign_in
func (h *Handler) SignIn(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := h.service.SignIn(ctx)
	if err != nil {
		return errorToResult(SignInTool, err), nil
	}
	return userToResult(SignInTool, user)
}

// SignOut handles spotify_sign_out
func (h *Handler) SignOut(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.service.SignOut(ctx); err != nil {
		return errorToResult(SignOutTool, err), nil
	}
	return mcp.NewToolResultText("Signed out of Spotify"), nil
}
