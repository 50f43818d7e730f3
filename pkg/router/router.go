package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/exp/slices"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. Returning an error stops the request.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response has been written, whatever the outcome.
type CloserFunc func(ctx context.Context)

type Router struct {
	rootCtx context.Context
	mux     *http.ServeMux
	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers *[]CloserFunc
}

// New creates a router whose handlers see every value stored in rootCtx
// (configs, logger, database...) on top of the request context.
func New(rootCtx context.Context) *Router {
	return &Router{
		rootCtx: rootCtx,
		mux:     http.NewServeMux(),
		closers: &[]CloserFunc{},
	}
}

// Branch returns a router sharing the same mux and closers. Middlewares added
// to the branch do not affect the parent.
func (r *Router) Branch() *Router {
	return &Router{
		rootCtx: r.rootCtx,
		mux:     r.mux,
		befores: slices.Clone(r.befores),
		afters:  slices.Clone(r.afters),
		closers: r.closers,
	}
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

// After registers a middleware running once the handler succeeded, before
// the response is written. The response is available with xcontext.Response.
func (r *Router) After(m MiddlewareFunc) {
	r.afters = append(r.afters, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	*r.closers = append(*r.closers, c)
}

// Handle registers a plain handler, bypassing middlewares and the envelope.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, r.wrap(http.MethodGet, func(ctx context.Context) (any, error) {
		var req Request
		if err := decodeQuery(xcontext.HTTPRequest(ctx), &req); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind query: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid query parameters")
		}

		return handler(ctx, &req)
	}))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, r.wrap(http.MethodPost, func(ctx context.Context) (any, error) {
		var req Request
		if err := decodeJSON(xcontext.HTTPRequest(ctx), &req); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind json: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid json body")
		}

		return handler(ctx, &req)
	}))
}

func (r *Router) wrap(method string, call func(ctx context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := r.newContext(w, req)
		defer func() { r.close(ctx) }()

		if req.Method != method {
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

		resp, err := call(ctx)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeError(ctx, w, err)
			return
		}

		ctx = xcontext.WithResponse(ctx, resp)
		ctx, err = r.run(ctx, r.afters)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeError(ctx, w, err)
			return
		}

		if err := WriteJson(w, http.StatusOK, newResponse(resp)); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot write the response: %v", err)
		}
	}
}

func (r *Router) newContext(w http.ResponseWriter, req *http.Request) context.Context {
	var ctx context.Context = requestContext{Context: req.Context(), root: r.rootCtx}
	ctx = xcontext.WithHTTPRequest(ctx, req)
	ctx = xcontext.WithResponseWriter(ctx, w)
	return ctx
}

func (r *Router) run(ctx context.Context, middlewares []MiddlewareFunc) (context.Context, error) {
	for _, m := range middlewares {
		var err error
		ctx, err = m(ctx)
		if err != nil {
			return ctx, err
		}
	}

	return ctx, nil
}

func (r *Router) close(ctx context.Context) {
	for _, c := range *r.closers {
		c(ctx)
	}
}

// requestContext keeps the cancellation of the request while exposing the
// values injected at startup.
type requestContext struct {
	context.Context
	root context.Context
}

func (c requestContext) Value(key any) any {
	if v := c.Context.Value(key); v != nil {
		return v
	}

	return c.root.Value(key)
}

func decodeJSON(req *http.Request, v any) error {
	if req.Body == nil {
		return nil
	}

	err := json.NewDecoder(req.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func decodeQuery(req *http.Request, v any) error {
	input := map[string]any{}
	for key, values := range req.URL.Query() {
		if len(values) == 1 {
			input[key] = values[0]
		} else {
			input[key] = values
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
