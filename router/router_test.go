package router

import (
	"context"
	"strings"
	"testing"

	"github.com/andycostintoma/tophat"
)

func textEndpoint(s string) tophat.Endpoint {
	return func(ctx context.Context, rw *tophat.ResponseWriter, req *tophat.Request) (tophat.ResponseWritten, *tophat.Glitch) {
		w, _ := rw.SetText(s).Send(ctx)
		return w, nil
	}
}

func paramEndpoint(ctx context.Context, rw *tophat.ResponseWriter, req *tophat.Request) (tophat.ResponseWritten, *tophat.Glitch) {
	w, _ := rw.SetText(ParamsFromContext(ctx).Get("id")).Send(ctx)
	return w, nil
}

func newRequest(method, path string) *tophat.Request {
	u, err := tophat.ParseRequestTarget(path)
	if err != nil {
		panic(err)
	}
	return &tophat.Request{
		Method: method,
		Target: path,
		URL:    u,
		Proto:  "HTTP/1.1",
		Header: tophat.NewHeader(),
		Body:   tophat.EmptyBody(),
	}
}

type discard struct{ buf []byte }

func (d *discard) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

func TestRouteMatchesRegisteredPattern(t *testing.T) {
	rt := New()
	rt.Handle("GET", "/hello", textEndpoint("hi"))

	out := &discard{}
	rw := tophat.NewResponseWriter(out)
	req := newRequest("GET", "/hello")

	_, glitch := rt.Route(context.Background(), rw, req)
	if glitch != nil {
		t.Fatalf("unexpected glitch: %v", glitch)
	}
	if got := string(out.buf); !containsAll(got, "200 OK", "hi") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRouteCapturesParams(t *testing.T) {
	rt := New()
	rt.Handle("GET", "/users/{id}", paramEndpoint)

	out := &discard{}
	rw := tophat.NewResponseWriter(out)
	req := newRequest("GET", "/users/42")

	_, glitch := rt.Route(context.Background(), rw, req)
	if glitch != nil {
		t.Fatalf("unexpected glitch: %v", glitch)
	}
	if got := string(out.buf); !containsAll(got, "42") {
		t.Fatalf("expected captured param 42 in output, got %q", got)
	}
}

func TestRouteNotFoundSendsItself(t *testing.T) {
	rt := New()
	rt.Handle("GET", "/known", textEndpoint("ok"))

	out := &discard{}
	rw := tophat.NewResponseWriter(out)
	req := newRequest("GET", "/unknown")

	_, glitch := rt.Route(context.Background(), rw, req)
	if glitch != nil {
		t.Fatalf("unexpected glitch: %v", glitch)
	}
	if got := string(out.buf); !containsAll(got, "404") {
		t.Fatalf("expected 404 in output, got %q", got)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
