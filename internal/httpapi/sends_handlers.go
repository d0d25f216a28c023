package httpapi

import (
	"net/http"

	"github.com/nagendra-kumar-y/zerothhire/internal/dispatch"
)

type SendsHandler struct {
	Dispatcher *dispatch.Dispatcher
}

// ResendFailed is operator tooling: sweep failed sends still under the
// retry cap, once, now. It is never scheduled.
func (h SendsHandler) ResendFailed(w http.ResponseWriter, r *http.Request) {
	results, err := h.Dispatcher.ResendFailed(r.Context(), 10)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "resend_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}
