// Package crawler summarises the interactive surface of a loaded page.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// Options configures the crawler behavior
type Options struct {
	SettleTimeout time.Duration // how long to wait for the network to go idle
}

// Map extracts a PageMap from the page's current state.
func Map(ctx context.Context, page *rod.Page, opts Options) (*PageMap, error) {
	if opts.SettleTimeout == 0 {
		opts.SettleTimeout = 5 * time.Second
	}
	page = page.Context(ctx)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page did not load: %w", err)
	}

	// Pages with persistent connections never go fully idle
	page.Timeout(opts.SettleTimeout).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read page info: %w", err)
	}

	elements, err := extractElements(page)
	if err != nil {
		return nil, err
	}
	navigation, err := extractNavigation(page)
	if err != nil {
		return nil, err
	}

	return &PageMap{
		URL:        info.URL,
		Title:      info.Title,
		Elements:   elements,
		Navigation: navigation,
		Frames:     countFrames(page),
	}, nil
}

const selectorHelperJS = `
	function cssIdent(s) {
		return !!s && !/^-?[0-9]/.test(s) && !/[.:#\[\]()>~+*\/\\\s]/.test(s);
	}
	function selectorFor(el) {
		if (cssIdent(el.id)) return '#' + el.id;
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		const classes = typeof el.className === 'string'
			? el.className.trim().split(/\s+/).filter(cssIdent).slice(0, 2) : [];
		if (classes.length) {
			const sel = el.tagName.toLowerCase() + '.' + classes.join('.');
			try { if (document.querySelectorAll(sel).length === 1) return sel; } catch (e) {}
		}
		const parent = el.parentElement;
		if (!parent) return el.tagName.toLowerCase();
		const index = Array.from(parent.children).indexOf(el) + 1;
		return selectorFor(parent) + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
	}
	function kindOf(el) {
		const tag = el.tagName.toLowerCase();
		if (tag === 'a') return 'link';
		if (tag === 'select' || tag === 'textarea' || tag === 'iframe') return tag;
		if (tag === 'button' || el.getAttribute('role') === 'button') return 'button';
		if (el.type === 'submit' || el.type === 'button') return 'button';
		return el.type || 'text';
	}
`

func extractElements(page *rod.Page) ([]Element, error) {
	res, err := page.Eval(`() => {` + selectorHelperJS + `
		const out = [];
		const seen = new Set();
		const query = 'button, [role="button"], a[href], select, textarea, iframe, ' +
			'input:not([type="hidden"])';
		document.querySelectorAll(query).forEach(el => {
			if (!el.offsetParent && el.tagName !== 'IFRAME') return;
			const href = el.getAttribute('href');
			if (href && (href.startsWith('#') || href.startsWith('javascript:'))) return;
			const selector = selectorFor(el);
			if (seen.has(selector)) return;
			seen.add(selector);
			out.push({
				selector: selector,
				type: kindOf(el),
				text: (el.textContent || el.value || '').trim().slice(0, 50),
				placeholder: el.placeholder || '',
				name: el.name || '',
				id: el.id || ''
			});
		});
		return out;
	}`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract elements: %w", err)
	}

	var elements []Element
	for _, v := range res.Value.Arr() {
		elements = append(elements, Element{
			Selector:    v.Get("selector").String(),
			Type:        v.Get("type").String(),
			Text:        v.Get("text").String(),
			Placeholder: v.Get("placeholder").String(),
			Name:        v.Get("name").String(),
			ID:          v.Get("id").String(),
		})
	}
	return elements, nil
}

func extractNavigation(page *rod.Page) ([]NavItem, error) {
	res, err := page.Eval(`() => {
		const out = [];
		const seen = new Set();
		document.querySelectorAll('nav a, header a, [role="navigation"] a').forEach(el => {
			if (!el.offsetParent) return;
			const href = el.getAttribute('href');
			if (!href || href === '#' || href.startsWith('javascript:') || seen.has(href)) return;
			seen.add(href);
			out.push({
				selector: el.id ? '#' + el.id : 'a[href="' + href + '"]',
				text: (el.textContent || '').trim().slice(0, 30),
				href: href
			});
		});
		return out;
	}`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract navigation: %w", err)
	}

	var items []NavItem
	for _, v := range res.Value.Arr() {
		items = append(items, NavItem{
			Selector: v.Get("selector").String(),
			Text:     v.Get("text").String(),
			Href:     v.Get("href").String(),
		})
	}
	return items, nil
}

func countFrames(page *rod.Page) int {
	res, err := page.Eval(`() => document.querySelectorAll('iframe, frame').length`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}
