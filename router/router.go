// Package router is a routing convenience layered on top of the tophat
// core: it dispatches a decoded *tophat.Request to one of several
// tophat.Endpoint values by method and path pattern, using chi's radix
// tree for matching. It is not part of the core's contract — an
// Endpoint can be driven directly by tophat.Accept with no router at all.
//
// tophat.Request and tophat.ResponseWriter are not net/http types, so
// Router drives chi.Mux.ServeHTTP with a throwaway *http.Request that
// carries only the method and path chi needs in order to match a route
// and capture path parameters. The handler chi ends up calling reads the
// real ctx/rw/req back out of that request's context and calls straight
// into the matched tophat.Endpoint.
package router

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/andycostintoma/tophat"
)

type paramsKey struct{}

// Params exposes path parameters captured by a route pattern, e.g. "id"
// in the pattern "/users/{id}".
type Params struct {
	values map[string]string
}

// Get returns the named path parameter, or "" if it was not captured.
func (p Params) Get(name string) string {
	if p.values == nil {
		return ""
	}
	return p.values[name]
}

// ParamsFromContext returns the path parameters captured for the request
// currently being handled, if it was dispatched through a Router.
func ParamsFromContext(ctx context.Context) Params {
	p, _ := ctx.Value(paramsKey{}).(Params)
	return p
}

func paramsFromRouteContext(rctx *chi.Context) Params {
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return Params{}
	}
	values := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		values[k] = rctx.URLParams.Values[i]
	}
	return Params{values: values}
}

type dispatchKey struct{}

// dispatchState carries the real tophat request/response pair through a
// chi dispatch and collects the endpoint's return values, since the
// http.Handler chi calls only has a (w http.ResponseWriter, r *http.Request)
// signature to work with.
type dispatchState struct {
	ctx     context.Context
	rw      *tophat.ResponseWriter
	req     *tophat.Request
	written tophat.ResponseWritten
	glitch  *tophat.Glitch
	called  bool
}

type endpointHandler struct {
	endpoint tophat.Endpoint
}

func (h endpointHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, _ := r.Context().Value(dispatchKey{}).(*dispatchState)
	if state == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	params := paramsFromRouteContext(chi.RouteContext(r.Context()))
	ctx := context.WithValue(state.ctx, paramsKey{}, params)
	state.called = true
	state.written, state.glitch = h.endpoint(ctx, state.rw, state.req)
}

// Router dispatches requests to tophat.Endpoint values by method and
// chi-style pattern.
type Router struct {
	mux *chi.Mux
}

// New returns an empty Router.
func New() *Router {
	return &Router{mux: chi.NewRouter()}
}

// Handle registers endpoint for method (e.g. "GET") and a chi pattern
// (e.g. "/users/{id}").
func (rt *Router) Handle(method, pattern string, endpoint tophat.Endpoint) {
	rt.mux.Method(method, pattern, endpointHandler{endpoint: endpoint})
}

// Route resolves req against the registered routes and invokes the
// matched endpoint. If nothing matches, it sends a 404 itself through rw.
func (rt *Router) Route(ctx context.Context, rw *tophat.ResponseWriter, req *tophat.Request) (tophat.ResponseWritten, *tophat.Glitch) {
	state := &dispatchState{ctx: ctx, rw: rw, req: req}

	path := "/"
	if req.URL != nil && req.URL.Path != "" {
		path = req.URL.Path
	}
	httpReq := httptest.NewRequest(req.Method, path, nil)
	httpReq = httpReq.WithContext(context.WithValue(httpReq.Context(), dispatchKey{}, state))

	rec := httptest.NewRecorder()
	rt.mux.ServeHTTP(rec, httpReq)

	if !state.called {
		w, _ := rw.SendCode(ctx, http.StatusNotFound)
		return w, nil
	}
	return state.written, state.glitch
}
