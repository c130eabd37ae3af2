// Package app wires one window's stores, coordinators and terminal UI
// together.
package app

import (
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/screenstate/internal/coord"
	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/session"
	"github.com/abelbrown/screenstate/internal/ui"
)

// Navigator turns the UI's open/back requests into coordinator calls for
// one window. The tree's presenter reports the resulting screens back to
// the UI, so the commands it returns carry no message on success.
type Navigator struct {
	tree   *coord.Tree
	window *session.Window
	send   func(tea.Msg)
	log    logging.Logger

	mu       sync.Mutex
	root     coord.ID
	children map[coord.Route]coord.ID
	bindings map[coord.Route]*coord.Binding
}

// NewNavigator creates a Navigator. send receives URLs opened by the QR
// scanner and may be nil.
func NewNavigator(w *session.Window, tree *coord.Tree, send func(tea.Msg), log logging.Logger) *Navigator {
	if send == nil {
		send = func(tea.Msg) {}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Navigator{
		tree:     tree,
		window:   w,
		send:     send,
		log:      log,
		children: make(map[coord.Route]coord.ID),
		bindings: make(map[coord.Route]*coord.Binding),
	}
}

// Open returns a command that presents r.
func (n *Navigator) Open(r coord.Route) tea.Cmd {
	return func() tea.Msg {
		if err := n.open(r); err != nil {
			n.log.Log("open "+string(r)+" failed", logging.Warning, logging.CategoryCoordinator,
				logging.WithDescription(err.Error()))
			return ui.NavigationFailed{Err: err}
		}
		return nil
	}
}

// Back returns a command that dismisses r.
func (n *Navigator) Back(r coord.Route) tea.Cmd {
	return func() tea.Msg {
		if err := n.back(r); err != nil {
			n.log.Log("close "+string(r)+" failed", logging.Warning, logging.CategoryCoordinator,
				logging.WithDescription(err.Error()))
			return ui.NavigationFailed{Err: err}
		}
		return nil
	}
}

func (n *Navigator) open(r coord.Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if r == coord.RouteBrowser {
		if n.root == 0 {
			n.root = n.tree.Start(coord.RouteBrowser)
		}
		return nil
	}
	if n.root == 0 {
		return fmt.Errorf("open %s before the browser: %w", r, coord.ErrUnknownCoordinator)
	}
	// Bindings remove their own coordinator, so only a live child counts.
	if id, ok := n.children[r]; ok {
		if _, alive := n.tree.Get(id); alive {
			return nil
		}
	}
	n.forget(r)

	switch r {
	case coord.RouteThemeSettings, coord.RouteWallpaper:
		id, err := n.tree.Child(n.root, r)
		if err != nil {
			return err
		}
		n.children[r] = id

	case coord.RouteMicrosurvey:
		b, err := coord.BindMicrosurvey(n.tree, n.root, n.window.Microsurvey)
		if err != nil {
			return err
		}
		n.children[r] = b.Child()
		n.bindings[r] = b

	case coord.RouteQRCode:
		b, err := coord.BindQRCode(n.tree, n.root, n.window.QRCode, func(url string) {
			n.send(ui.URLOpened{URL: url})
		})
		if err != nil {
			return err
		}
		n.children[r] = b.Child()
		n.bindings[r] = b

	default:
		return fmt.Errorf("open %s: %w", r, coord.ErrUnknownCoordinator)
	}
	return nil
}

func (n *Navigator) back(r coord.Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch r {
	case coord.RouteBrowser:
		return nil
	case coord.RoutePrivacyNotice:
		if id, ok := n.children[coord.RouteMicrosurvey]; ok {
			n.tree.Pop(id)
		}
		return nil
	}

	id, ok := n.children[r]
	n.forget(r)
	if !ok {
		return nil
	}
	// A binding may already have removed the coordinator.
	if err := n.tree.Remove(id); err != nil && !errors.Is(err, coord.ErrUnknownCoordinator) {
		return err
	}
	return nil
}

// forget drops bookkeeping for r. Caller holds mu.
func (n *Navigator) forget(r coord.Route) {
	if b, ok := n.bindings[r]; ok {
		b.Stop()
		delete(n.bindings, r)
	}
	delete(n.children, r)
}

// Close stops every binding. Coordinators are left in place.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for r, b := range n.bindings {
		b.Stop()
		delete(n.bindings, r)
	}
}
