// Package navigator maps screen names to routes and owns the active screen.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/jjudge-oj/imageforms/internal/screen"
	"github.com/jjudge-oj/imageforms/types"
)

// DashboardPath is the route of the dashboard.
const DashboardPath = "/"

// ErrUnknownRoute is returned when navigating to a name or path that is not
// registered.
var ErrUnknownRoute = errors.New("unknown route")

// Factory builds a fresh, unmounted screen.
type Factory func() *screen.Screen

// Route is a navigable screen.
type Route struct {
	Name  string
	Title string
	Path  string

	factory Factory
}

// Navigator keeps the route table and the active screen. The dashboard is
// active when no screen is.
type Navigator struct {
	mu      sync.Mutex
	routes  []Route
	active  *screen.Screen
	current string
	logTags log.Fields
}

// New registers one route per entry.
func New(routes ...Route) *Navigator {
	return &Navigator{
		routes:  routes,
		current: DashboardPath,
		logTags: log.Fields{"module": "navigator", "component": "navigator"},
	}
}

// NewRoute binds a collection to a screen factory under /{collection.Name}.
func NewRoute(collection types.Collection, factory Factory) Route {
	return Route{
		Name:    collection.Name,
		Title:   collection.Title,
		Path:    "/" + collection.Name,
		factory: factory,
	}
}

// ForCollections builds one route per collection using api to construct
// the screen's endpoint client.
func ForCollections(collections []types.Collection, api func(types.Collection) screen.API) *Navigator {
	routes := make([]Route, 0, len(collections))
	for _, c := range collections {
		c := c
		routes = append(routes, NewRoute(c, func() *screen.Screen {
			return screen.New(c, api(c))
		}))
	}
	return New(routes...)
}

// Routes returns the registered routes in registration order.
func (n *Navigator) Routes() []Route {
	return append([]Route(nil), n.routes...)
}

// Lookup resolves a screen name or route path, ignoring case.
func (n *Navigator) Lookup(nameOrPath string) (Route, bool) {
	key := strings.TrimSpace(nameOrPath)
	for _, r := range n.routes {
		if strings.EqualFold(r.Name, key) || strings.EqualFold(r.Path, key) {
			return r, true
		}
	}
	return Route{}, false
}

// Navigate builds the screen of the route and mounts it. Every call yields
// a fresh screen: the list is fetched again and the form starts empty. A
// failed list fetch still activates the screen, with an empty list, and
// the error is returned.
func (n *Navigator) Navigate(ctx context.Context, nameOrPath string) (*screen.Screen, error) {
	if strings.TrimSpace(nameOrPath) == DashboardPath {
		n.Back()
		return nil, nil
	}
	route, ok := n.Lookup(nameOrPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, nameOrPath)
	}

	s := route.factory()
	n.mu.Lock()
	n.active = s
	n.current = route.Path
	n.mu.Unlock()

	log.WithFields(n.logTags).WithField("path", route.Path).Debug("Navigated")
	return s, s.Mount(ctx)
}

// Back returns to the dashboard. The previous screen is dropped.
func (n *Navigator) Back() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = nil
	n.current = DashboardPath
}

// Active returns the active screen, or nil on the dashboard.
func (n *Navigator) Active() *screen.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Current returns the path of the active route.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
