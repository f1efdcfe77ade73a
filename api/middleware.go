package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// TidHeader lets callers correlate their request with the decoder logs.
const TidHeader = "X-Request-Id"

type tidKey struct{}

// RequestID makes sure every request carries a tid, reusing the caller's
// X-Request-Id when there is one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get(TidHeader)
		if tid == "" {
			tid = uuid.New().String()
		}
		w.Header().Set(TidHeader, tid)
		ctx := context.WithValue(r.Context(), tidKey{}, tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tidFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(tidKey{}).(string)
	return tid
}

// NewHandler routes POST /decode to the pipeline.
func NewHandler(req *Request) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/decode", req.Decode)
	return RequestID(mux)
}
