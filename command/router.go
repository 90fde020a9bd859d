// Package command implements the line-oriented command surface exposed on the
// device's serial console.
package command

import (
	"context"
	"log/slog"
	"strings"
)

// Request contains the parameters matched from the command word and the rest
// of the line after the first whitespace.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response collects the lines written back to the host.
type Response struct {
	Lines []string
}

// Println appends one response line.
func (r *Response) Println(line string) { r.Lines = append(r.Lines, line) }

// HandlerFunc processes a request and populates the response. A returned
// error is rendered as a single error line by the dispatcher.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// Router matches command words like "readfile:{name}". Literal parts match
// case-insensitively; parameter values keep their case.
type Router struct {
	routes []routeEntry
}

type routeEntry struct {
	pattern string
	parts   []string
	names   []string
	handler HandlerFunc
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a pattern like "writefile:{name}".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	parts := strings.Split(pattern, ":")
	names := make([]string, len(parts))
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			names[i] = part[1 : len(part)-1]
			continue
		}
		parts[i] = strings.ToLower(part)
	}
	r.routes = append(r.routes, routeEntry{pattern: pattern, parts: parts, names: names, handler: handler})
}

// Match returns the handler and params for word, or nil if no pattern
// matches.
func (r *Router) Match(word string) (HandlerFunc, map[string]string) {
	parts := strings.Split(word, ":")
	for _, rt := range r.routes {
		if len(rt.parts) != len(parts) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i := range parts {
			if rt.names[i] != "" {
				params[rt.names[i]] = parts[i]
				continue
			}
			if rt.parts[i] != strings.ToLower(parts[i]) {
				ok = false
				break
			}
		}
		if ok {
			return rt.handler, params
		}
	}
	return nil, nil
}
