package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/popup"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	user *models.SocialUser
	err  error
}

func (s *stubService) GetLoginStatus(context.Context) (*models.SocialUser, error) { return s.user, s.err }
func (s *stubService) SignIn(context.Context) (*models.SocialUser, error)         { return s.user, s.err }
func (s *stubService) SignOut(context.Context) error                              { return s.err }

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandler_Tools(t *testing.T) {
	tools := NewHandler(&stubService{}).Tools()
	require.Len(t, tools, 3)
	for name, tl := range tools {
		assert.Equal(t, name, tl.Tool.Name)
		assert.NotNil(t, tl.Handler)
	}
}

func TestHandler_SignIn(t *testing.T) {
	tests := []struct {
		name    string
		service *stubService
		wantErr bool
		want    string
	}{
		{
			name:    "success hides the token",
			service: &stubService{user: &models.SocialUser{Provider: "SPOTIFY", ID: "u1", Email: "a@x.io", AuthToken: "ABC123"}},
			want:    `{"provider":"SPOTIFY","id":"u1","name":"","email":"a@x.io","photoUrl":""}`,
		},
		{
			name:    "window closed",
			service: &stubService{err: popup.ErrWindowClosed},
			wantErr: true,
			want:    "authentication window was closed",
		},
		{
			name:    "provider error",
			service: &stubService{err: &popup.ProviderError{Code: "access_denied", Description: "User denied"}},
			wantErr: true,
			want:    "User denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewHandler(tt.service).SignIn(context.Background(), mcp.CallToolRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, res.IsError)
			if tt.wantErr {
				assert.Equal(t, tt.want, resultText(t, res))
				return
			}
			assert.JSONEq(t, tt.want, resultText(t, res))
		})
	}
}

func TestHandler_SignOut(t *testing.T) {
	res, err := NewHandler(&stubService{}).SignOut(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = NewHandler(&stubService{err: errors.New("boom")}).SignOut(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "boom", resultText(t, res))
}
