// ABOUTME: Icons for the TUI with Nerd Font glyphs and Unicode fallbacks
// ABOUTME: Chooses the glyph set from BUGTRACKER_NERD_FONTS or the terminal name

package icons

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var (
	nerdFonts     bool
	nerdFontsOnce sync.Once
)

// nerdFontTerminals are TERM_PROGRAM or TERM values that usually ship a Nerd Font
var nerdFontTerminals = []string{"iterm.app", "alacritty", "wezterm", "kitty", "ghostty"}

// detect decides between Nerd Font glyphs and plain Unicode.
// BUGTRACKER_NERD_FONTS (then NERD_FONTS) wins when set to a boolean;
// otherwise the terminal name decides.
func detect(getenv func(string) string) bool {
	for _, key := range []string{"BUGTRACKER_NERD_FONTS", "NERD_FONTS"} {
		if v, err := strconv.ParseBool(strings.TrimSpace(getenv(key))); err == nil {
			return v
		}
	}

	program := strings.ToLower(getenv("TERM_PROGRAM"))
	term := strings.ToLower(getenv("TERM"))
	return slices.ContainsFunc(nerdFontTerminals, func(t string) bool {
		return strings.Contains(program, t) || strings.Contains(term, t)
	})
}

// HasNerdFonts reports whether icons render as Nerd Font glyphs. The
// environment is read once per process.
func HasNerdFonts() bool {
	nerdFontsOnce.Do(func() {
		nerdFonts = detect(os.Getenv)
	})
	return nerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info

	// Projects
	Project  = Icon{"󰉋", "▣"} // nf-md-folder
	Favorite = Icon{"󰓎", "★"} // nf-md-star
	Lock     = Icon{"󰌾", "●"} // nf-md-lock

	// Actions
	Add     = Icon{"󰐕", "+"} // nf-md-plus
	Edit    = Icon{"󰏫", "✎"} // nf-md-pencil
	Delete  = Icon{"󰆴", "⌫"} // nf-md-delete
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Logout  = Icon{"󰍃", "⇥"} // nf-md-logout
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app

	// Application
	App = Icon{"󰃤", "◈"} // nf-md-bug
)
