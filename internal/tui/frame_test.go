// ABOUTME: Test to verify header/footer width alignment
// ABOUTME: Ensures frame renders at correct terminal width on every screen

package tui

import (
	"context"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func TestFrameAlignment(t *testing.T) {
	widths := []int{60, 80, 100, 120}

	for _, authenticated := range []bool{false, true} {
		for _, targetWidth := range widths {
			name := "login-" + strconv.Itoa(targetWidth)
			if authenticated {
				name = "projects-" + strconv.Itoa(targetWidth)
			}
			t.Run(name, func(t *testing.T) {
				deps, _ := newTestDeps(t, noBackend(t), authenticated)
				app := New(context.Background(), deps)
				app.list.SetPage(samplePage())

				model, _ := app.Update(tea.WindowSizeMsg{Width: targetWidth, Height: 30})
				app = model.(*App)

				lines := strings.Split(app.View(), "\n")

				// Frame uses width-1 to prevent wrapping on some terminals,
				// but clamps to minimum of 80 for usability
				expectedWidth := max(targetWidth-1, 80)

				header := lines[0]
				if !strings.Contains(header, "╭") {
					t.Fatalf("Header not found in first line: %q", header)
				}
				if w := lipgloss.Width(header); w != expectedWidth {
					t.Errorf("Header width mismatch at width %d: expected %d, got %d", targetWidth, expectedWidth, w)
				}

				footer := lines[len(lines)-1]
				if !strings.Contains(footer, "╰") {
					t.Fatalf("Footer not found in last line: %q", footer)
				}
				if w := lipgloss.Width(footer); w != expectedWidth {
					t.Errorf("Footer width mismatch at width %d: expected %d, got %d", targetWidth, expectedWidth, w)
				}
			})
		}
	}
}

func TestFooterShortcutsPerScreen(t *testing.T) {
	deps, _ := newTestDeps(t, noBackend(t), true)
	app := New(context.Background(), deps)

	if footer := app.renderFooter(); !strings.Contains(footer, "Logout") {
		t.Errorf("expected projects shortcuts, got %q", footer)
	}

	app.screen = ScreenLogin
	if footer := app.renderFooter(); !strings.Contains(footer, "Submit") {
		t.Errorf("expected login shortcuts, got %q", footer)
	}
}
