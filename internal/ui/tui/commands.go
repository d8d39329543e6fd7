package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const loadTimeout = 30 * time.Second

func cmdLoadResources(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.Resources == nil {
			return resourcesLoadedMsg{err: errors.New("resource source is nil")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		items, err := deps.Resources.List(ctx, deps.Limit, deps.Filter)
		if err != nil {
			deps.Logger.Error().Err(err).Msg("tui.list_failed")
		}
		return resourcesLoadedMsg{items: items, err: err}
	}
}

// cmdOpenResource refetches id so the detail view shows the current state,
// then renders it as markdown.
func cmdOpenResource(deps Deps, id string, width int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		r, err := deps.Resources.Get(ctx, id)
		if err != nil {
			deps.Logger.Error().Err(err).Str("id", id).Msg("tui.get_failed")
			return resourceDetailMsg{id: id, err: err}
		}
		return resourceDetailMsg{id: id, rendered: renderMarkdown(resourceMarkdown(r), deps.GlamourStyle, width)}
	}
}

type rendererKey struct {
	style string
	width int
}

var rendererCache sync.Map // rendererKey -> *glamour.TermRenderer

func getRenderer(style string, width int) (*glamour.TermRenderer, error) {
	key := rendererKey{style, width}
	if cached, ok := rendererCache.Load(key); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	rendererCache.Store(key, r)
	return r, nil
}

// renderMarkdown falls back to the raw markdown when glamour fails.
func renderMarkdown(md, style string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := getRenderer(style, width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
