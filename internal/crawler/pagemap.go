package crawler

import (
	"fmt"
	"strings"
)

// PageMap represents the analyzed structure of a web page
type PageMap struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Elements   []Element `json:"elements"`
	Navigation []NavItem `json:"navigation"`
	Frames     int       `json:"frames"` // number of iframes; steps inside them need EnterFrame
}

// Element represents an interactive element on the page
type Element struct {
	Selector    string `json:"selector"`
	Type        string `json:"type"` // button, link, select, textarea, iframe or an input type
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
}

// NavItem represents a navigation link
type NavItem struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Href     string `json:"href"`
}

// Summary renders a one-line-per-element listing, for terminal output.
func (m *PageMap) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", m.Title, m.URL)
	for _, el := range m.Elements {
		label := el.Text
		if label == "" {
			label = el.Placeholder
		}
		fmt.Fprintf(&b, "  %-8s %s", el.Type, el.Selector)
		if label != "" {
			fmt.Fprintf(&b, "  %q", label)
		}
		b.WriteByte('\n')
	}
	for _, nav := range m.Navigation {
		fmt.Fprintf(&b, "  nav      %s -> %s\n", nav.Selector, nav.Href)
	}
	return b.String()
}
