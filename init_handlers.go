package main

import "github.com/campusdesk/portal/handlers"

// Handlers holds every handler instance. Handlers stay thin: parse the
// request, call a service, write the envelope.
type Handlers struct {
	Session   *handlers.SessionHandler
	ReadState *handlers.ReadStateHandler
}

func initHandlers(svcs *Services) *Handlers {
	return &Handlers{
		Session:   handlers.NewSessionHandler(svcs.Sessions, svcs.OpenLimiter),
		ReadState: handlers.NewReadStateHandler(svcs.Sessions),
	}
}
