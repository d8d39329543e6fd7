package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aalvaropc/tether/internal/domain"
)

type screen int

const (
	screenList screen = iota
	screenDetail
)

type resourceItem struct {
	r domain.Resource
}

func (i resourceItem) Title() string { return i.r.Data.Name }
func (i resourceItem) Description() string {
	return typeLabel(i.r.Data.Type) + " · " + i.r.ID
}
func (i resourceItem) FilterValue() string { return i.r.Data.Name }

type model struct {
	theme Theme
	deps  Deps

	scr    screen
	list   list.Model
	width  int
	height int

	loading bool
	status  string
	errMsg  string

	detailID string
	detail   string
}

// Run starts the browser and blocks until the user quits.
func Run(deps Deps) error {
	p := tea.NewProgram(wrapSafe(newModel(deps), deps.Logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Resources"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return model{
		theme:   DefaultTheme(),
		deps:    deps,
		scr:     screenList,
		list:    l,
		loading: true,
	}
}

func (m model) Init() tea.Cmd { return cmdLoadResources(m.deps) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case resourcesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = userMessage(msg.err)
			return m, nil
		}
		m.errMsg = ""
		items := make([]list.Item, 0, len(msg.items))
		for _, r := range msg.items {
			items = append(items, resourceItem{r: r})
		}
		m.status = fmt.Sprintf("%d resource(s)", len(items))
		return m, m.list.SetItems(items)

	case resourceDetailMsg:
		m.loading = false
		if msg.id != m.detailID {
			return m, nil
		}
		if msg.err != nil {
			m.scr = screenList
			m.errMsg = userMessage(msg.err)
			return m, nil
		}
		m.detail = msg.rendered
		return m, nil

	case tea.KeyMsg:
		if m.scr == screenList && m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.scr == screenList {
				return m, tea.Quit
			}
			m.scr = screenList
			return m, nil

		case "esc", "b":
			if m.scr == screenDetail {
				m.scr = screenList
				return m, nil
			}

		case "r":
			if m.scr == screenList && !m.loading {
				m.loading = true
				m.errMsg = ""
				return m, cmdLoadResources(m.deps)
			}

		case "enter":
			if m.scr == screenList {
				it, ok := m.list.SelectedItem().(resourceItem)
				if !ok {
					return m, nil
				}
				m.scr = screenDetail
				m.detailID = it.r.ID
				m.detail = ""
				m.loading = true
				return m, cmdOpenResource(m.deps, it.r.ID, m.width-8)
			}
		}
	}

	if m.scr == screenList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	wrap := lipgloss.NewStyle().Padding(1, 2)
	header := m.theme.Title.Render("tether") + " " + m.theme.Subtitle.Render("resource browser") + "\n"

	status := m.theme.Help.Render(m.status)
	switch {
	case m.loading:
		status = m.theme.Help.Render("loading…")
	case m.errMsg != "":
		status = m.theme.Error.Render(m.errMsg)
	}

	switch m.scr {
	case screenList:
		help := m.theme.Help.Render("↑/↓ navigate • enter open • / search • r reload • q quit")
		return wrap.Render(header + "\n" + m.theme.Card.Render(m.list.View()) + "\n" + status + "\n" + help)

	case screenDetail:
		body := m.detail
		if body == "" {
			body = m.theme.Help.Render("loading " + m.detailID + "…")
		}
		help := m.theme.Help.Render("esc/b back • q list • ctrl+c quit")
		return wrap.Render(header + "\n" + m.theme.Badge.Render(m.detailID) + "\n" + body + "\n" + help)

	default:
		return wrap.Render(header + "\nunknown state")
	}
}
