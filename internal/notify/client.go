// Package notify maintains the websocket connection that delivers
// server push events. When the connection cannot be re-established
// within the configured retry budget the client reports fallback so
// callers can rely on interval polling instead.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/logger"
)

// Handler receives decoded push events
type Handler func(event domain.Event)

// FallbackHandler is invoked once the retry budget is exhausted
type FallbackHandler func(lastErr error)

// Config contains notification client configuration
type Config struct {
	// URL is the websocket endpoint, e.g. ws://host:8080/ws
	URL string
	// Username is appended as a query parameter so the server can
	// route per-user events
	Username string
	// MaxRetries bounds reconnection attempts before fallback
	MaxRetries int
	// RetryInterval is the fixed delay between reconnection attempts
	RetryInterval time.Duration
}

// Client listens for push events over a websocket connection
type Client struct {
	config   Config
	handler  Handler
	fallback FallbackHandler
	dialer   *websocket.Dialer

	mu        sync.Mutex
	running   bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// New creates a notification client
func New(config Config, handler Handler, fallback FallbackHandler) *Client {
	return &Client{
		config:    config,
		handler:   handler,
		fallback:  fallback,
		dialer:    websocket.DefaultDialer,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins listening for events in the background
func (c *Client) Start(ctx context.Context) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("notify client already running")
	}
	c.running = true
	c.mu.Unlock()

	go c.run(ctx, endpoint)
	return nil
}

// Stop closes the connection and stops reconnection attempts
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	<-c.stoppedCh

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// endpoint builds the dial URL with the username query parameter
func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("username", c.config.Username)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// run dials and reads until stopped, reconnecting with a fixed delay.
// The retry counter resets after every successful connection.
func (c *Client) run(ctx context.Context, endpoint string) {
	defer close(c.stoppedCh)

	log := logger.Get().With("component", "notify")
	retries := 0
	var lastErr error

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
		}

		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			lastErr = err
			retries++
			log.Warn("websocket connect failed",
				"attempt", retries,
				"max_retries", c.config.MaxRetries,
				"error", err)

			if retries >= c.config.MaxRetries {
				log.Warn("notification retries exhausted, falling back to polling")
				if c.fallback != nil {
					c.fallback(lastErr)
				}
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			case <-time.After(c.config.RetryInterval):
			}
			continue
		}

		log.Info("websocket connected", "url", c.config.URL)
		retries = 0

		err = c.readLoop(ctx, conn)
		conn.Close()

		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
		}

		if err != nil {
			lastErr = err
			log.Warn("websocket connection lost", "error", err)
		}
	}
}

// readLoop reads and dispatches events until the connection drops
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage when the client is stopped
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.stopChan:
		case <-done:
			return
		}
		conn.Close()
	}()

	log := logger.Get().With("component", "notify")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event domain.Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Warn("discarding malformed event", "error", err)
			continue
		}
		if !event.Type.IsValid() {
			log.Warn("discarding event with unknown type", "type", event.Type)
			continue
		}

		if c.handler != nil {
			c.handler(event)
		}
	}
}
