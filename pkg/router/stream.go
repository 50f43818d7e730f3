package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/xcontext"
)

// EmitFunc sends one server-sent event to the client.
type EmitFunc func(event any) error

type StreamFunc func(ctx context.Context, emit EmitFunc) error

// STREAM registers a POST handler answering with text/event-stream. Errors
// returned before the first event are written as a normal error envelope,
// later ones as a terminal {"error": ...} event.
func STREAM(r *Router, pattern string, handler StreamFunc) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		ctx := r.newContext(w, req)
		defer func() { r.close(ctx) }()

		if req.Method != http.MethodPost {
			ctx = xcontext.WithError(ctx, errorx.New(errorx.NotImplemented, "Method %s is not supported", req.Method))
			writeError(ctx, w, xcontext.Error(ctx))
			return
		}

		var err error
		ctx, err = r.run(ctx, r.befores)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeError(ctx, w, err)
			return
		}

		flusher, _ := w.(http.Flusher)
		started := false
		emit := func(event any) error {
			if !started {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("Connection", "keep-alive")
				w.WriteHeader(http.StatusOK)
				started = true
			}

			b, err := json.Marshal(event)
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return err
			}

			if flusher != nil {
				flusher.Flush()
			}

			return nil
		}

		if err := handler(ctx, emit); err != nil {
			ctx = xcontext.WithError(ctx, err)
			if !started {
				writeError(ctx, w, err)
				return
			}

			message := errorx.Unknown.Message
			errx := errorx.Error{}
			if errors.As(err, &errx) {
				message = errx.Message
			}

			if err := emit(map[string]string{"error": message}); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot write the error event: %v", err)
			}
		}
	})
}
