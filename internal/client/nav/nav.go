// Package nav names the places the authentication core can send the user.
// Rendering them is somebody else's job; the core only says where to go.
package nav

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/hireloop/internal/client/models"
)

type Destination string

const (
	Landing            Destination = "landing"
	Auth               Destination = "auth"
	ForgotPassword     Destination = "forgot-password"
	VerifySecondFactor Destination = "verify-2fa"
	RecruiterOnboard   Destination = "recruiter-onboarding"
	JobSeekerDashboard Destination = "jobseeker-dashboard"
	RecruiterDashboard Destination = "recruiter-dashboard"
)

// Route is a destination plus the role it was reached with. Role is empty
// for destinations that do not depend on one.
type Route struct {
	Destination Destination
	Role        models.Role
}

func (r Route) String() string {
	if r.Role == "" {
		return string(r.Destination)
	}
	return string(r.Destination) + "?role=" + string(r.Role)
}

// Navigator is the dispatcher the flows call once a step is decided.
type Navigator interface {
	Navigate(ctx context.Context, r Route)
}

// DashboardFor is the home destination of an authenticated role.
func DashboardFor(role models.Role) Destination {
	if role == models.RoleEmployer {
		return RecruiterDashboard
	}
	return JobSeekerDashboard
}

// AfterAuthentication picks where a freshly authenticated role lands. The
// onboarding gate applies to employers only.
func AfterAuthentication(role models.Role, requiresOnboarding bool) Route {
	if role == models.RoleEmployer && requiresOnboarding {
		return Route{Destination: RecruiterOnboard, Role: role}
	}
	return Route{Destination: DashboardFor(role), Role: role}
}

// Recorder remembers every route it was sent to. The CLI tests and the
// flow tests use it in place of a real dispatcher.
type Recorder struct {
	mu     sync.Mutex
	routes []Route
}

func (r *Recorder) Navigate(ctx context.Context, route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *Recorder) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// Last returns the most recent route, or false if none was recorded.
func (r *Recorder) Last() (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return Route{}, false
	}
	return r.routes[len(r.routes)-1], true
}
