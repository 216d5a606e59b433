package handlers

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/eventgate/gatekeeper/internal/services"
)

// Default key if env not set
func operatorKey() string {
	if k := os.Getenv("OPERATOR_KEY"); k != "" {
		return k
	}
	return "gate123" // change in production: export OPERATOR_KEY=...
}

type operatorCtxKey struct{}

// RequireOperator is middleware: blocks API access unless the request
// carries the operator key, and records who is scanning.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Operator-Key") != operatorKey() {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid operator key.")
			return
		}
		id := services.Identity{
			ID:   strings.TrimSpace(r.Header.Get("X-Operator-Id")),
			Name: strings.TrimSpace(r.Header.Get("X-Operator-Name")),
		}
		if id.ID == "" && id.Name == "" {
			id.ID = "operator"
		}
		ctx := context.WithValue(r.Context(), operatorCtxKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorFrom returns the identity stored by RequireOperator.
func OperatorFrom(r *http.Request) services.Identity {
	if id, ok := r.Context().Value(operatorCtxKey{}).(services.Identity); ok {
		return id
	}
	return services.Identity{ID: "operator"}
}
