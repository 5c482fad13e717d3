// Package tui renders the interactive sign in in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SignInFunc performs the sign in the view waits on
type SignInFunc func(ctx context.Context) (*models.SocialUser, error)

// resultMsg carries the sign in outcome into the program
type resultMsg struct {
	user *models.SocialUser
	err  error
}

// SignInModel shows a spinner until the sign in settles or the user aborts
type SignInModel struct {
	spinner spinner.Model
	cancel  context.CancelFunc
	started time.Time
	now     func() time.Time

	user    *models.SocialUser
	err     error
	done    bool
	aborted bool
}

// NewSignInModel creates the view. cancel is called when the user aborts.
func NewSignInModel(cancel context.CancelFunc) SignInModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return SignInModel{
		spinner: s,
		cancel:  cancel,
		started: time.Now(),
		now:     time.Now,
	}
}

// Init starts the spinner
func (m SignInModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles the outcome, abort keys and spinner ticks
func (m SignInModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.user, m.err, m.done = msg.user, msg.err, true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.aborted, m.done = true, true
			m.err = context.Canceled
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current state
func (m SignInModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Spotify sign in"))
	b.WriteString("\n\n")

	switch {
	case m.aborted:
		b.WriteString(statusMessageStyle("Sign in aborted"))
	case m.done && m.err != nil:
		b.WriteString(statusMessageStyle("Sign in failed: " + m.err.Error()))
	case m.done:
		b.WriteString(completeMessageStyle(fmt.Sprintf("Signed in as %s", userLabel(m.user))))
	default:
		elapsed := m.now().Sub(m.started).Truncate(time.Second)
		b.WriteString(fmt.Sprintf("%s Waiting for the browser (%s)\n\n", m.spinner.View(), elapsed))
		b.WriteString(hintStyle("Complete the sign in in your browser. Press q to abort."))
	}
	b.WriteString("\n")
	return docStyle.Render(b.String())
}

// Result returns the settled user and error
func (m SignInModel) Result() (*models.SocialUser, error) {
	return m.user, m.err
}

func userLabel(u *models.SocialUser) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return fmt.Sprintf("%s (%s)", u.Name, u.ID)
	}
	return u.ID
}

// RunSignIn runs fn while showing the sign in view and returns its outcome.
// Aborting from the keyboard cancels fn's context.
func RunSignIn(ctx context.Context, fn SignInFunc, opts ...tea.ProgramOption) (*models.SocialUser, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewSignInModel(cancel), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	go func() {
		user, err := fn(ctx)
		p.Send(resultMsg{user: user, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("sign in view failed: %w", err)
	}
	return final.(SignInModel).Result()
}
