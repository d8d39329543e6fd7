package tui

import "github.com/aalvaropc/tether/internal/domain"

type resourcesLoadedMsg struct {
	items []domain.Resource
	err   error
}

type resourceDetailMsg struct {
	id       string
	rendered string
	err      error
}
