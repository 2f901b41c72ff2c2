package tui

import (
	"sync"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// markdownRenderer renders assistant replies, rebuilding the glamour
// renderer only when the width changes.
type markdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	profile  termenv.Profile
}

func newMarkdownRenderer(profile termenv.Profile) *markdownRenderer {
	return &markdownRenderer{profile: profile}
}

// render falls back to the raw text when glamour fails.
func (m *markdownRenderer) render(content string, width int) string {
	if content == "" {
		return ""
	}
	r, err := m.get(width)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (m *markdownRenderer) get(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderer != nil && m.width == width {
		return m.renderer, nil
	}

	style := glamourstyles.DarkStyleConfig
	style.Document.Margin = uintPtr(0)
	style.H1.Prefix = ""
	style.H2.Prefix = ""
	style.H3.Prefix = ""

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
		glamour.WithColorProfile(m.profile),
	)
	if err != nil {
		return nil, err
	}
	m.renderer, m.width = r, width
	return r, nil
}

func uintPtr(u uint) *uint { return &u }
