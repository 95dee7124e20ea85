package mailform

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "mailform"

type requestStateKey struct{}

// requestState carries the session and the flash message consumed for the
// current request.
type requestState struct {
	session *sessions.Session
	flash   string
}

func stateFrom(ctx context.Context) *requestState {
	if state, ok := ctx.Value(requestStateKey{}).(*requestState); ok {
		return state
	}

	return &requestState{}
}

// FlashMessage returns the flash message pending for the request, if any.
func FlashMessage(ctx context.Context) string {
	return stateFrom(ctx).flash
}

func (h *HttpHandler) withFlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An undecodable cookie still yields a fresh session.
		session, err := h.sessions.Get(r, sessionName)
		if err != nil {
			h.logger.WithError(err).Debug("discarding invalid session cookie")
		}

		if session == nil {
			session = sessions.NewSession(h.sessions, sessionName)
		}

		state := &requestState{session: session}

		if flashes := session.Flashes(); len(flashes) > 0 {
			state.flash, _ = flashes[0].(string)

			if err := session.Save(r, w); err != nil {
				h.logger.WithError(err).Error("failed to save session")
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestStateKey{}, state)))
	})
}

// redirectWithFlash stores message for the next request and redirects.
func (h *HttpHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, message string) {
	if session := stateFrom(r.Context()).session; session != nil {
		session.AddFlash(message)

		if err := session.Save(r, w); err != nil {
			h.logger.WithError(err).Error("failed to save flash message")
		}
	}

	http.Redirect(w, r, url, http.StatusFound)
}
