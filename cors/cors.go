// Package cors is a minimal CORS validator, grounded on the original's
// server/cors.rs (itself modeled on warp's cors middleware): it checks the
// client's Origin header for simple requests, and the full preflight
// triplet (Origin, Access-Control-Request-Method, -Headers) for an OPTIONS
// preflight. It does not validate the preflight's declared content-type or
// correctness beyond that — same scope as the original.
package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andycostintoma/tophat"
)

// Validated classifies the outcome of Cors.Validate.
type Validated int

const (
	// Simple is a non-preflight CORS request that passed origin checks;
	// the caller should continue to the endpoint.
	Simple Validated = iota
	// NotCors is a request with no Origin header at all; continue as normal.
	NotCors
	// Preflight is a validated OPTIONS preflight; the caller should return
	// immediately, the response headers having already been set.
	Preflight
	// Invalid is a CORS request that failed a check; the caller should
	// return immediately without setting CORS headers.
	Invalid
)

// Cors holds a fixed CORS policy. Build one with Builder.
type Cors struct {
	credentials      bool
	allowedHeaders   map[string]struct{}
	allowedHeaderCSV string
	exposedHeaders   string
	maxAge           *int
	methodsSet       map[string]struct{}
	methodsCSV       string
	origins          map[string]struct{} // nil means "*", any origin allowed
}

// Builder assembles a Cors policy with chained setters, mirroring the
// original's CorsBuilder.
type Builder struct {
	c *Cors
}

// New starts a Builder with every list empty and all origins allowed.
func New() *Builder {
	return &Builder{c: &Cors{
		allowedHeaders: map[string]struct{}{},
		methodsSet:     map[string]struct{}{},
	}}
}

// AllowCredentials sets whether to add Access-Control-Allow-Credentials.
func (b *Builder) AllowCredentials(allow bool) *Builder {
	b.c.credentials = allow
	return b
}

// AllowMethod adds one allowed request method for preflight checks.
func (b *Builder) AllowMethod(method string) *Builder {
	b.c.methodsSet[strings.ToUpper(method)] = struct{}{}
	return b
}

// AllowMethods adds multiple allowed request methods.
func (b *Builder) AllowMethods(methods ...string) *Builder {
	for _, m := range methods {
		b.AllowMethod(m)
	}
	return b
}

// AllowHeader adds one allowed request header for preflight checks.
func (b *Builder) AllowHeader(header string) *Builder {
	b.c.allowedHeaders[http.CanonicalHeaderKey(header)] = struct{}{}
	return b
}

// AllowHeaders adds multiple allowed request headers.
func (b *Builder) AllowHeaders(headers ...string) *Builder {
	for _, h := range headers {
		b.AllowHeader(h)
	}
	return b
}

// ExposeHeader adds a header the client is told it may read off the response.
func (b *Builder) ExposeHeader(header string) *Builder {
	if b.c.exposedHeaders == "" {
		b.c.exposedHeaders = http.CanonicalHeaderKey(header)
	} else {
		b.c.exposedHeaders += ", " + http.CanonicalHeaderKey(header)
	}
	return b
}

// AllowAnyOrigin allows every Origin (the default).
func (b *Builder) AllowAnyOrigin() *Builder {
	b.c.origins = nil
	return b
}

// AllowOrigin restricts allowed origins to exactly those listed across all
// calls (first call narrows from "any" to this explicit set).
func (b *Builder) AllowOrigin(origins ...string) *Builder {
	if b.c.origins == nil {
		b.c.origins = map[string]struct{}{}
	}
	for _, o := range origins {
		b.c.origins[o] = struct{}{}
	}
	return b
}

// MaxAge sets Access-Control-Max-Age, in seconds.
func (b *Builder) MaxAge(seconds int) *Builder {
	b.c.maxAge = &seconds
	return b
}

// Finish returns the assembled, immutable Cors policy.
func (b *Builder) Finish() *Cors {
	c := b.c
	methods := make([]string, 0, len(c.methodsSet))
	for m := range c.methodsSet {
		methods = append(methods, m)
	}
	c.methodsCSV = strings.Join(methods, ", ")

	headers := make([]string, 0, len(c.allowedHeaders))
	for h := range c.allowedHeaders {
		headers = append(headers, h)
	}
	c.allowedHeaderCSV = strings.Join(headers, ", ")
	return c
}

// Validate inspects req and, for Simple or Preflight outcomes, sets the
// corresponding CORS headers on rw. The caller is responsible for acting on
// the returned Validated: Preflight and Invalid both mean "return now".
func (c *Cors) Validate(req *tophat.Request, rw *tophat.ResponseWriter) Validated {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return NotCors
	}

	if req.Method == "OPTIONS" {
		if !c.originAllowed(origin) {
			return Invalid
		}
		reqMethod := req.Header.Get("Access-Control-Request-Method")
		if reqMethod == "" || !c.methodAllowed(reqMethod) {
			return Invalid
		}
		if reqHeaders := req.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			for _, h := range strings.Split(reqHeaders, ",") {
				if !c.headerAllowed(strings.TrimSpace(h)) {
					return Invalid
				}
			}
		}
		c.appendPreflightHeaders(rw)
		rw.InsertHeader("Access-Control-Allow-Origin", origin)
		return Preflight
	}

	if !c.originAllowed(origin) {
		return Invalid
	}
	c.appendCommonHeaders(rw)
	rw.InsertHeader("Access-Control-Allow-Origin", origin)
	return Simple
}

func (c *Cors) originAllowed(origin string) bool {
	if c.origins == nil {
		return true
	}
	_, ok := c.origins[origin]
	return ok
}

func (c *Cors) methodAllowed(method string) bool {
	_, ok := c.methodsSet[strings.ToUpper(method)]
	return ok
}

func (c *Cors) headerAllowed(header string) bool {
	_, ok := c.allowedHeaders[http.CanonicalHeaderKey(header)]
	return ok
}

func (c *Cors) appendPreflightHeaders(rw *tophat.ResponseWriter) {
	c.appendCommonHeaders(rw)
	if c.allowedHeaderCSV != "" {
		rw.InsertHeader("Access-Control-Allow-Headers", c.allowedHeaderCSV)
	}
	if c.methodsCSV != "" {
		rw.InsertHeader("Access-Control-Allow-Methods", c.methodsCSV)
	}
	if c.maxAge != nil {
		rw.InsertHeader("Access-Control-Max-Age", strconv.Itoa(*c.maxAge))
	}
}

func (c *Cors) appendCommonHeaders(rw *tophat.ResponseWriter) {
	if c.credentials {
		rw.InsertHeader("Access-Control-Allow-Credentials", "true")
	}
	if c.exposedHeaders != "" {
		rw.InsertHeader("Access-Control-Expose-Headers", c.exposedHeaders)
	}
}
