// ABOUTME: Banners shown above the login form after account flows
// ABOUTME: Selected by flags in the login view's query string

package auth

import "net/url"

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
)

// Notice is a dismissible login banner
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Title string     `json:"title"`
	Body  string     `json:"body,omitempty"`
}

var notices = []struct {
	flag   string
	notice Notice
}{
	{"register", Notice{NoticeInfo, "Almost done!", "Check your email to confirm it!"}},
	{"verify", Notice{NoticeSuccess, "Mail is confirmed!", ""}},
	{"forgotPassword", Notice{NoticeInfo, "Almost done!", "Check your email to recover password!"}},
	{"resetPassword", Notice{NoticeSuccess, "Access restored!", ""}},
}

// NoticesFor returns the banners named by the login query, in display order
func NoticesFor(q url.Values) []Notice {
	var out []Notice
	for _, n := range notices {
		if q.Has(n.flag) {
			out = append(out, n.notice)
		}
	}
	return out
}
