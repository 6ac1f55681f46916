// Package server implements the daemon's line-oriented TCP protocol.
//
// Each request is one line: a command followed by space-separated arguments.
// Responses are "OK", "OK <json>", "ERR <message>" or "PONG".
//
//	GET <suite> <key>
//	SET <suite> <key> <json>
//	DEL <suite> <key>
//	LIST_SUITES
//	DUMP <suite>
//	MOVE <src> <dst> <key>
//	PING
//	QUIT
package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
	"github.com/celerix-dev/celerix-prefs/internal/telemetry"
	"github.com/celerix-dev/celerix-prefs/pkg/sdk"
)

const (
	maxConnections = 100
	connLifetime   = 5 * time.Minute
	commandTimeout = 30 * time.Second
)

// Router serves a preference store over TCP.
type Router struct {
	store  sdk.Store
	cert   *tls.Certificate
	logger *slog.Logger
	// maxConns caps connections served at once.
	maxConns int

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// NewRouter creates a router for s.
func NewRouter(s sdk.Store) *Router {
	return &Router{store: s, logger: slog.Default(), maxConns: maxConnections}
}

// SetMaxConnections changes the connection cap. Call it before Serve.
func (r *Router) SetMaxConnections(n int) {
	if n > 0 {
		r.maxConns = n
	}
}

// SetCertificate enables TLS with cert.
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// SetLogger replaces the router's logger.
func (r *Router) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Addr returns the bound address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Listen binds to port on all interfaces and serves until Stop is called.
// Port "0" picks a free port; see Addr.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}
	return r.Serve(listener)
}

// Serve accepts connections on listener until Stop is called.
func (r *Router) Serve(listener net.Listener) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		listener.Close()
		return net.ErrClosed
	}
	r.listener = listener
	r.mu.Unlock()

	semaphore := make(chan struct{}, r.maxConns)

	for {
		// Take a slot before accepting so excess clients wait in the listen backlog
		semaphore <- struct{}{}

		conn, err := listener.Accept()
		if err != nil {
			<-semaphore
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.logger.Warn("accept failed", "error", err)
			continue
		}

		// Bound the lifetime of a connection to prevent resource exhaustion
		conn.SetDeadline(time.Now().Add(connLifetime))

		go func(c net.Conn) {
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.HandleConnection(c)
		}(conn)
	}
}

// Stop closes the listener. Open connections finish their current command.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

// HandleConnection serves commands on conn until QUIT, EOF or a read timeout.
func (r *Router) HandleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		// Set a deadline for the next command
		conn.SetReadDeadline(time.Now().Add(commandTimeout))

		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger.Debug("connection closed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}

		line = strings.TrimSpace(line)
		parts := strings.Fields(line)
		if len(parts) < 1 {
			continue
		}

		if !r.dispatch(conn, strings.ToUpper(parts[0]), parts[1:], line) {
			return
		}
	}
}

// dispatch runs one command and reports whether the connection stays open.
// line is the full request, used where an argument may itself contain spaces.
func (r *Router) dispatch(w io.Writer, command string, args []string, line string) bool {
	_, span := telemetry.Tracer().Start(context.Background(), "prefs.tcp."+strings.ToLower(command))
	span.SetAttributes(attribute.Int("prefs.args", len(args)))
	defer span.End()

	fail := func(err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fmt.Fprintln(w, "ERR", err)
	}

	switch command {
	case "GET":
		if len(args) < 2 {
			fail(errUsage("GET <suite> <key>"))
			return true
		}
		val, err := r.store.Get(args[0], args[1])
		if err != nil {
			fail(err)
			return true
		}
		writeJSON(w, val)

	case "SET":
		if len(args) < 3 {
			fail(errUsage("SET <suite> <key> <json>"))
			return true
		}
		// The value is the raw text after the key, inner whitespace included
		_, valueStr := cutFields(line, 3)
		var val any
		if err := codec.Decode([]byte(valueStr), &val); err != nil {
			fail(errors.New("invalid json value"))
			return true
		}
		if err := r.store.Set(args[0], args[1], val); err != nil {
			fail(err)
			return true
		}
		fmt.Fprintln(w, "OK")

	case "DEL":
		if len(args) < 2 {
			fail(errUsage("DEL <suite> <key>"))
			return true
		}
		if err := r.store.Delete(args[0], args[1]); err != nil {
			fail(err)
			return true
		}
		fmt.Fprintln(w, "OK")

	case "LIST_SUITES":
		list, err := r.store.Suites()
		if err != nil {
			fail(err)
			return true
		}
		if list == nil {
			list = []string{}
		}
		writeJSON(w, list)

	case "DUMP":
		if len(args) < 1 {
			fail(errUsage("DUMP <suite>"))
			return true
		}
		data, err := r.store.Dictionary(args[0])
		if err != nil {
			fail(err)
			return true
		}
		writeJSON(w, data)

	case "MOVE":
		if len(args) < 3 {
			fail(errUsage("MOVE <src> <dst> <key>"))
			return true
		}
		if err := r.store.Move(args[0], args[1], args[2]); err != nil {
			fail(err)
			return true
		}
		fmt.Fprintln(w, "OK")

	case "PING":
		fmt.Fprintln(w, "PONG")

	case "QUIT":
		return false

	default:
		fail(fmt.Errorf("unknown command %s", command))
	}
	return true
}

// cutFields splits the first n whitespace-separated fields off s and returns
// them with the untouched remainder.
func cutFields(s string, n int) ([]string, string) {
	fields := make([]string, 0, n)
	for len(fields) < n {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			fields = append(fields, s)
			s = ""
			break
		}
		fields = append(fields, s[:i])
		s = s[i:]
	}
	return fields, strings.TrimLeft(s, " \t")
}

func errUsage(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}

func writeJSON(w io.Writer, v any) {
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(w, "ERR internal error")
		return
	}
	fmt.Fprintln(w, "OK", string(res))
}
