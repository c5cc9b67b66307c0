package main

import (
	"log"

	"github.com/campusdesk/portal/config"
	"github.com/campusdesk/portal/pkg/ratelimit"
	"github.com/campusdesk/portal/services"
)

// Services holds every service instance plus the rate limiters handlers use.
type Services struct {
	Sessions    services.SessionService
	ViewerAuth  services.ViewerAuth
	OpenLimiter *ratelimit.Limiter
}

// Shutdown stops background goroutines.
func (s *Services) Shutdown() {
	s.Sessions.Shutdown()
	if s.OpenLimiter != nil {
		s.OpenLimiter.Stop()
	}
}

func initServices(repos *Repositories, cfg *config.Config) *Services {
	auth := services.NewViewerAuth(cfg.JWT.Secret)
	if !auth.Enabled() {
		log.Println("[main] JWT_SECRET not set, every request is served as guest")
	}

	var limiter *ratelimit.Limiter
	if cfg.Session.OpenLimit > 0 {
		limiter = ratelimit.New(cfg.Session.OpenLimit, cfg.Session.OpenWindow)
	}

	return &Services{
		Sessions:    services.NewSessionService(repos.ReadState, cfg.Session.TTL, cfg.Session.CleanupInterval),
		ViewerAuth:  auth,
		OpenLimiter: limiter,
	}
}
