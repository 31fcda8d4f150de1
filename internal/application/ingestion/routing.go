package ingestion

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gobwas/glob"

	"github.com/orris-inc/helpdesk/internal/shared/config"
)

// Router maps a recipient address to a queue prefix. Its table can be
// swapped at runtime while lookups are in flight.
type Router struct {
	table atomic.Pointer[routeTable]
}

type routeTable struct {
	defaultQueue string
	routes       []compiledRoute
}

type compiledRoute struct {
	pattern string
	queue   string
	exact   bool
	matcher glob.Glob
}

func NewRouter(cfg config.RoutingConfig) (*Router, error) {
	r := &Router{}
	if err := r.Reload(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload compiles cfg and replaces the active table. On error the previous
// table stays in place.
func (r *Router) Reload(cfg config.RoutingConfig) error {
	table := &routeTable{defaultQueue: strings.ToUpper(strings.TrimSpace(cfg.DefaultQueue))}
	for _, route := range cfg.Routes {
		compiled, err := compileRoute(route)
		if err != nil {
			return err
		}
		table.routes = append(table.routes, compiled)
	}
	r.table.Store(table)
	return nil
}

func compileRoute(route config.RouteConfig) (compiledRoute, error) {
	pattern := strings.ToLower(strings.TrimSpace(route.Pattern))
	queue := strings.ToUpper(strings.TrimSpace(route.Queue))
	if pattern == "" || queue == "" {
		return compiledRoute{}, fmt.Errorf("route requires pattern and queue, got %q -> %q", route.Pattern, route.Queue)
	}
	// "@acme.example" is shorthand for every address of that domain.
	if strings.HasPrefix(pattern, "@") {
		pattern = "*" + pattern
	}

	c := compiledRoute{pattern: pattern, queue: queue}
	if !strings.ContainsAny(pattern, "*?[{") {
		c.exact = true
		return c, nil
	}
	g, err := glob.Compile(pattern, '@')
	if err != nil {
		return compiledRoute{}, fmt.Errorf("invalid route pattern %q: %w", route.Pattern, err)
	}
	c.matcher = g
	return c, nil
}

// Match returns the queue of the first route matching address, in
// configuration order.
func (r *Router) Match(address string) (string, bool) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return "", false
	}
	for _, route := range r.table.Load().routes {
		if route.exact {
			if route.pattern == address {
				return route.queue, true
			}
			continue
		}
		if route.matcher.Match(address) {
			return route.queue, true
		}
	}
	return "", false
}

func (r *Router) DefaultQueue() string {
	return r.table.Load().defaultQueue
}
