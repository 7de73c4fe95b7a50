package rbac

import (
	"log/slog"
	"net/http"
	"net/url"
)

// Redirect targets of the navigation guard.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is the outcome of a guarded navigation.
type Decision int

// Guard outcomes.
const (
	DecisionRender Decision = iota
	DecisionLogin
	DecisionHome
)

func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionLogin:
		return "login"
	case DecisionHome:
		return "home"
	default:
		return "unknown"
	}
}

// Decide evaluates a navigation to c. It only inspects the arguments, so it is
// recomputed on every request.
func Decide(role Role, authenticated bool, c Capability) Decision {
	if !authenticated {
		return DecisionLogin
	}
	if !CanAccess(role, c) {
		return DecisionHome
	}
	return DecisionRender
}

// RoleResolver exposes the role of the session attached to a request.
type RoleResolver interface {
	CurrentRole(r *http.Request) (Role, bool)
}

// DecisionObserver receives every guard decision.
type DecisionObserver interface {
	ObserveGuard(c Capability, d Decision)
}

// Middleware wires the navigation guard for HTTP handlers.
type Middleware struct {
	Sessions RoleResolver
	Logger   *slog.Logger
	Observer DecisionObserver
}

// Require admits requests whose session may enter c. Anonymous visitors go
// to the login page with the requested URI preserved; sessions without
// access go back to the landing page without a message.
func (m Middleware) Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				role Role
				ok   bool
			)
			if m.Sessions != nil {
				role, ok = m.Sessions.CurrentRole(r)
			}
			decision := Decide(role, ok, c)
			if m.Observer != nil {
				m.Observer.ObserveGuard(c, decision)
			}
			switch decision {
			case DecisionLogin:
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			case DecisionHome:
				if m.Logger != nil {
					m.Logger.Debug("guard denied", slog.String("capability", string(c)), slog.String("role", string(role)))
				}
				http.Redirect(w, r, HomePath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// LoginURL builds the login location that forwards back to requested.
func LoginURL(requested string) string {
	if requested == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {requested}}.Encode()
}
