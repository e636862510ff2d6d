// Package router dispatches named routes, gating access on session state.
//
// The guard is deliberately shallow: a route is "logged in" when the
// session store yields a decodable token, nothing more. No expiry or
// signature check happens client-side; a token the server has already
// expired passes the guard and is caught by the 401 interceptor on the
// next request, which clears the session and routes back here.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"splitmate/internal/session"
)

// Access classifies who may enter a route.
type Access int

const (
	// Public routes render for everyone.
	Public Access = iota

	// Protected routes require a session; otherwise redirect to login.
	Protected

	// PublicOnly routes redirect logged-in users to the landing route,
	// e.g. the login form itself.
	PublicOnly
)

// View renders one route. Errors are reported, never fatal.
type View func(ctx context.Context) error

// Route names used by the redirect rules.
const (
	LoginRoute   = "login"
	LandingRoute = "dashboard"
)

type route struct {
	access Access
	view   View
}

// Router resolves route names to views through the access guard.
type Router struct {
	sessions session.Store
	routes   map[string]route
}

// New builds an empty router over the given session accessor.
func New(sessions session.Store) *Router {
	return &Router{
		sessions: sessions,
		routes:   make(map[string]route),
	}
}

// Handle registers a view under a route name.
func (r *Router) Handle(name string, access Access, view View) {
	r.routes[name] = route{access: access, view: view}
}

// Routes lists the registered route names.
func (r *Router) Routes() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	return names
}

// Navigate resolves the requested route through the guard, runs the view
// it lands on, and returns the name of the route actually rendered.
func (r *Router) Navigate(ctx context.Context, name string) (string, error) {
	resolved, err := r.resolve(ctx, name)
	if err != nil {
		return "", err
	}

	if resolved != name {
		slog.Debug("route redirected", "requested", name, "rendered", resolved)
	}

	return resolved, r.routes[resolved].view(ctx)
}

func (r *Router) resolve(ctx context.Context, name string) (string, error) {
	rt, ok := r.routes[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}

	loggedIn := r.sessions.Token(ctx) != ""

	switch rt.access {
	case Protected:
		if !loggedIn {
			return r.requireRoute(LoginRoute)
		}
	case PublicOnly:
		if loggedIn {
			return r.requireRoute(LandingRoute)
		}
	}
	return name, nil
}

func (r *Router) requireRoute(name string) (string, error) {
	if _, ok := r.routes[name]; !ok {
		return "", fmt.Errorf("redirect target %q is not registered", name)
	}
	return name, nil
}
