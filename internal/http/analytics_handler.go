package httpapi

import (
	"net/http"

	"github.com/Lolobw32/ecom-oslan/internal/analytics"
)

// TrackPageView records a page view. The user agent defaults to the request
// header and a visitor id is minted for first-time visitors.
func (h *Handler) TrackPageView(w http.ResponseWriter, r *http.Request) {
	var pv analytics.PageView
	if !decodeJSON(w, r, &pv) {
		return
	}
	if pv.Path == "" {
		writeError(w, r, http.StatusBadRequest, "missing path")
		return
	}
	if pv.UserAgent == "" {
		pv.UserAgent = r.UserAgent()
	}
	if pv.Referrer == "" {
		pv.Referrer = r.Referer()
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	visitorID, err := h.d.PageViews.TrackPageView(ctx, pv)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"visitorId": visitorID})
}
