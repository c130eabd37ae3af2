package coord

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/otel"
)

// ErrUnknownCoordinator is returned for IDs not in the tree.
var ErrUnknownCoordinator = errors.New("coord: unknown coordinator")

// ID is a non-owning handle to a coordinator. Zero means none.
type ID uint64

// Coordinator is a snapshot of one node of the tree.
type Coordinator struct {
	ID       ID
	Route    Route
	Parent   ID
	Children []ID
	Stack    []Route // routes pushed on top of Route, bottom first
}

type node struct {
	id       ID
	route    Route
	parent   ID
	children []ID
	stack    *Stack
}

// Tree owns every coordinator of one window.
type Tree struct {
	presenter Presenter
	log       logging.Logger
	events    *otel.Logger
	window    string

	mu    sync.Mutex
	nodes map[ID]*node
	next  ID
}

// TreeOptions configures NewTree.
type TreeOptions struct {
	Window string // window UUID, stamped on events
	Log    logging.Logger
	Events *otel.Logger
}

// NewTree creates an empty tree that presents through p.
func NewTree(p Presenter, opts TreeOptions) *Tree {
	if p == nil {
		p = PresenterFunc{}
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	return &Tree{
		presenter: p,
		log:       opts.Log,
		events:    opts.Events,
		window:    opts.Window,
		nodes:     make(map[ID]*node),
	}
}

// Start creates a root coordinator and presents route.
func (t *Tree) Start(route Route) ID {
	t.mu.Lock()
	id := t.add(route, 0)
	t.mu.Unlock()

	t.present(route)
	return id
}

// Child creates a coordinator under parent and presents route.
func (t *Tree) Child(parent ID, route Route) (ID, error) {
	t.mu.Lock()
	p, ok := t.nodes[parent]
	if !ok {
		t.mu.Unlock()
		return 0, fmt.Errorf("child %s of %d: %w", route, parent, ErrUnknownCoordinator)
	}
	id := t.add(route, parent)
	p.children = append(p.children, id)
	t.mu.Unlock()

	t.present(route)
	return id, nil
}

func (t *Tree) add(route Route, parent ID) ID {
	t.next++
	id := t.next
	t.nodes[id] = &node{id: id, route: route, parent: parent, stack: NewStack()}
	return id
}

// Parent returns the parent of id, if id exists and is not a root.
func (t *Tree) Parent(id ID) (ID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	if !ok || n.parent == 0 {
		return 0, false
	}
	return n.parent, true
}

// Get returns a snapshot of id.
func (t *Tree) Get(id ID) (Coordinator, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	if !ok {
		return Coordinator{}, false
	}
	return Coordinator{
		ID:       n.id,
		Route:    n.route,
		Parent:   n.parent,
		Children: append([]ID(nil), n.children...),
		Stack:    n.stack.Routes(),
	}, true
}

// Find returns the oldest coordinator whose route is route.
func (t *Tree) Find(route Route) (ID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var found ID
	for id, n := range t.nodes {
		if n.route == route && (found == 0 || id < found) {
			found = id
		}
	}
	return found, found != 0
}

// Len returns the number of coordinators.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// Push presents route on top of coordinator id.
func (t *Tree) Push(id ID, route Route) error {
	t.mu.Lock()
	n, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("push %s on %d: %w", route, id, ErrUnknownCoordinator)
	}
	n.stack.Push(route)
	t.mu.Unlock()

	t.present(route)
	return nil
}

// Pop dismisses the top route pushed on id.
func (t *Tree) Pop(id ID) (Route, bool) {
	t.mu.Lock()
	n, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return "", false
	}
	r, ok := n.stack.Pop()
	t.mu.Unlock()

	if ok {
		t.dismiss(r)
	}
	return r, ok
}

// Remove deletes id and its subtree, dismissing every route it presented,
// deepest first.
func (t *Tree) Remove(id ID) error {
	t.mu.Lock()
	n, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("remove %d: %w", id, ErrUnknownCoordinator)
	}
	if p, ok := t.nodes[n.parent]; ok {
		p.children = removeID(p.children, id)
	}
	var routes []Route
	t.collect(id, &routes)
	t.mu.Unlock()

	for _, r := range routes {
		t.dismiss(r)
	}
	return nil
}

// collect removes id's subtree from the map and appends its routes in
// dismissal order. Caller holds mu.
func (t *Tree) collect(id ID, routes *[]Route) {
	n := t.nodes[id]
	for i := len(n.children) - 1; i >= 0; i-- {
		t.collect(n.children[i], routes)
	}
	for r, ok := n.stack.Pop(); ok; r, ok = n.stack.Pop() {
		*routes = append(*routes, r)
	}
	*routes = append(*routes, n.route)
	delete(t.nodes, id)
}

func removeID(ids []ID, id ID) []ID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func (t *Tree) present(r Route) {
	t.log.Log("present "+string(r), logging.Debug, logging.CategoryCoordinator)
	t.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPresent, Comp: "coord", Window: t.window, Msg: string(r)})
	t.presenter.Present(r)
}

func (t *Tree) dismiss(r Route) {
	t.log.Log("dismiss "+string(r), logging.Debug, logging.CategoryCoordinator)
	t.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDismiss, Comp: "coord", Window: t.window, Msg: string(r)})
	t.presenter.Dismiss(r)
}
