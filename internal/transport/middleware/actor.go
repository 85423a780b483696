package middleware

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/contentflow-backend/pkg/ctxutil"
)

// ActorHeader names the caller on whose behalf a workflow action runs.
const ActorHeader = "X-Actor"

const maxActorLength = 200

// Actor stores the X-Actor header in the request context. Requests without
// the header proceed anonymously and are recorded as the system actor.
// Overlong values are rejected with 400.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			next.ServeHTTP(w, r)
			return
		}
		if utf8.RuneCountInString(actor) > maxActorLength {
			http.Error(w, "actor header too long", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithActor(r.Context(), actor)))
	})
}
