// Package sdk provides the client-side library for the preferences daemon.
// It supports both remote connections via TCP/TLS and a local embedded mode.
package sdk

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

const maxAttempts = 3

// ErrInvalidName is returned for suite or key names the line protocol cannot carry.
var ErrInvalidName = errors.New("names must be non-empty and contain no whitespace")

// Errors the daemon reports by message, mapped back to their sentinels.
var remoteErrors = map[string]error{
	prefs.ErrNotFound.Error():       prefs.ErrNotFound,
	engine.ErrSuiteNotFound.Error(): engine.ErrSuiteNotFound,
}

// Compile-time interface satisfaction check.
var _ ClosableStore = (*Client)(nil)

// Client is a remote client for the preferences daemon.
type Client struct {
	addr       string
	disableTLS bool
	logger     *slog.Logger

	mu     sync.Mutex // Protects concurrent access to the connection
	conn   net.Conn
	reader *bufio.Reader
}

// Option configures a Client.
type Option func(*Client)

// WithoutTLS makes the client use plain TCP.
func WithoutTLS() Option {
	return func(c *Client) { c.disableTLS = true }
}

// WithClientLogger sets the logger used to report reconnects.
func WithClientLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Connect establishes a TLS-encrypted connection to a remote daemon.
func Connect(addr string, opts ...Option) (*Client, error) {
	c := &Client{addr: addr, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	var conn net.Conn
	var err error
	if c.disableTLS {
		conn, err = dialer.Dial("tcp", c.addr)
	} else {
		config := &tls.Config{
			InsecureSkipVerify: true, // The daemon uses a self-signed certificate
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	}
	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// sendAndReceive writes one command and returns the payload after "OK".
// Transport failures are retried with backoff; daemon errors are not.
func (c *Client) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < maxAttempts; i++ {
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration(i*100) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		var resp string
		if _, err = fmt.Fprint(c.conn, cmd+"\n"); err == nil {
			if resp, err = c.reader.ReadString('\n'); err == nil {
				return parseResponse(strings.TrimSpace(resp))
			}
		}

		c.logger.Warn("daemon request failed, reconnecting", "attempt", i+1, "addr", c.addr, "error", err)
		if closeErr := c.reconnect(); closeErr != nil {
			c.logger.Warn("reconnect failed", "addr", c.addr, "error", closeErr)
		}

		// Wait before retrying
		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

func parseResponse(resp string) (string, error) {
	switch {
	case resp == "OK" || resp == "PONG":
		return "", nil
	case strings.HasPrefix(resp, "OK "):
		return strings.TrimPrefix(resp, "OK "), nil
	case strings.HasPrefix(resp, "ERR"):
		msg := strings.TrimSpace(strings.TrimPrefix(resp, "ERR"))
		if known, ok := remoteErrors[msg]; ok {
			return "", known
		}
		return "", errors.New(msg)
	default:
		return "", fmt.Errorf("unexpected response %q", resp)
	}
}

func checkNames(names ...string) error {
	for _, n := range names {
		if n == "" || strings.ContainsAny(n, " \t\r\n") {
			return fmt.Errorf("%q: %w", n, ErrInvalidName)
		}
	}
	return nil
}

func (c *Client) Get(suite, key string) (any, error) {
	if err := checkNames(suite, key); err != nil {
		return nil, err
	}
	resp, err := c.sendAndReceive(fmt.Sprintf("GET %s %s", suite, key))
	if err != nil {
		return nil, err
	}
	var val any
	err = codec.Decode([]byte(resp), &val)
	return val, err
}

func (c *Client) Set(suite, key string, val any) error {
	if err := checkNames(suite, key); err != nil {
		return err
	}
	jsonData, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	_, err = c.sendAndReceive(fmt.Sprintf("SET %s %s %s", suite, key, jsonData))
	return err
}

func (c *Client) Delete(suite, key string) error {
	if err := checkNames(suite, key); err != nil {
		return err
	}
	_, err := c.sendAndReceive(fmt.Sprintf("DEL %s %s", suite, key))
	return err
}

func (c *Client) Suites() ([]string, error) {
	resp, err := c.sendAndReceive("LIST_SUITES")
	if err != nil {
		return nil, err
	}
	var list []string
	err = json.Unmarshal([]byte(resp), &list)
	return list, err
}

func (c *Client) Dictionary(suite string) (map[string]any, error) {
	if err := checkNames(suite); err != nil {
		return nil, err
	}
	resp, err := c.sendAndReceive(fmt.Sprintf("DUMP %s", suite))
	if err != nil {
		return nil, err
	}
	var data map[string]any
	err = codec.Decode([]byte(resp), &data)
	return data, err
}

func (c *Client) Move(src, dst, key string) error {
	if err := checkNames(src, dst, key); err != nil {
		return err
	}
	_, err := c.sendAndReceive(fmt.Sprintf("MOVE %s %s %s", src, dst, key))
	return err
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	_, err := c.sendAndReceive("PING")
	return err
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	fmt.Fprintln(c.conn, "QUIT")
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Preferences returns a typed preferences facade over suite on the daemon.
func (c *Client) Preferences(suite string, opts ...prefs.DefaultsOption) *prefs.Preferences {
	return prefs.NewPreferences(prefs.NewDefaults(c, suite, opts...))
}
