package httpapi

import (
	"net/http"

	"github.com/nagendra-kumar-y/zerothhire/internal/automation"
	"github.com/nagendra-kumar-y/zerothhire/internal/dispatch"
	"github.com/nagendra-kumar-y/zerothhire/internal/events"
)

type Deps struct {
	Automation *automation.Service
	Dispatcher *dispatch.Dispatcher
	Hub        *events.Hub
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	ah := AutomationHandler{Svc: d.Automation}
	mux.HandleFunc("/automation/start", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Start,
	}))
	mux.HandleFunc("/automation/stop", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Stop,
	}))
	mux.HandleFunc("/automation/trigger", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Trigger,
	}))
	mux.HandleFunc("/automation/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.Status,
	}))
	mux.HandleFunc("/automation/statistics", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.Statistics,
	}))

	// expects /jobs/{id}/process
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.ProcessByPath,
	}))

	sh := SendsHandler{Dispatcher: d.Dispatcher}
	mux.HandleFunc("/sends/resend-failed", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.ResendFailed,
	}))

	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	return mux
}
