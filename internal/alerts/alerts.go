// Package alerts delivers webhook notifications when shoe analysis crosses
// risk thresholds.
//
// Operators register alert URLs to be notified about:
// - Elevated risk scores
// - Elevated manipulation scores
// - Cleared sessions
package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mbd888/shoewatch/internal/idgen"
	"github.com/mbd888/shoewatch/internal/metrics"
	"github.com/mbd888/shoewatch/internal/retry"
	"github.com/mbd888/shoewatch/internal/security"
	"github.com/mbd888/shoewatch/internal/traces"
)

// EventKind represents the kind of alert event
type EventKind string

const (
	EventRiskElevated         EventKind = "analysis.risk_elevated"
	EventManipulationElevated EventKind = "analysis.manipulation_elevated"
	EventSessionCleared       EventKind = "session.cleared"

	// EventTest is sent by the test-delivery endpoint only; subscriptions
	// cannot register for it.
	EventTest EventKind = "test"
)

// ValidKind reports whether k is a kind a subscription may register for.
func ValidKind(k EventKind) bool {
	switch k {
	case EventRiskElevated, EventManipulationElevated, EventSessionCleared:
		return true
	}
	return false
}

// ErrSubscriptionNotFound is returned when a subscription ID does not exist.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Event is the payload POSTed to subscriber URLs.
type Event struct {
	ID        string                 `json:"id"`
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"sessionId,omitempty"`
	Score     int                    `json:"score"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Subscription represents an alert subscription
type Subscription struct {
	ID                  string      `json:"id"`
	URL                 string      `json:"url"`
	Secret              string      `json:"-"` // Used for HMAC signing
	Events              []EventKind `json:"events"`
	MinScore            int         `json:"minScore"`
	Active              bool        `json:"active"`
	CreatedAt           time.Time   `json:"createdAt"`
	LastSuccess         *time.Time  `json:"lastSuccess,omitempty"`
	LastError           string      `json:"lastError,omitempty"`
	ConsecutiveFailures int         `json:"consecutiveFailures"`
}

// Store persists alert subscriptions
type Store interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	List(ctx context.Context) ([]*Subscription, error)
	GetByEvent(ctx context.Context, kind EventKind) ([]*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id string) error
}

// RetryConfig controls delivery retries and failure handling.
type RetryConfig struct {
	MaxAttempts int           // total delivery attempts per event
	BaseDelay   time.Duration // first backoff delay, doubled each retry
	MaxFailures int           // consecutive failures before auto-deactivation; 0 disables
}

// DefaultRetryConfig returns the production retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxFailures: 10,
	}
}

// deliveryTimeout bounds one event's delivery including all retries.
const deliveryTimeout = 30 * time.Second

// Dispatcher sends alert events
type Dispatcher struct {
	store  Store
	client *http.Client
	cfg    RetryConfig

	// urlValidator guards against SSRF. Overridable in tests.
	urlValidator func(string) error
}

// NewDispatcher creates a dispatcher with default retry settings.
func NewDispatcher(store Store) *Dispatcher {
	return NewDispatcherWithRetry(store, DefaultRetryConfig())
}

// NewDispatcherWithRetry creates a dispatcher with explicit retry settings.
func NewDispatcherWithRetry(store Store, cfg RetryConfig) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	return &Dispatcher{
		store: store,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cfg:          cfg,
		urlValidator: security.ValidateEndpointURL,
	}
}

// ValidateURL checks a subscriber URL against the dispatcher's SSRF guard.
func (d *Dispatcher) ValidateURL(rawURL string) error {
	if d.urlValidator == nil {
		return nil
	}
	return d.urlValidator(rawURL)
}

// Dispatch sends an event to all active subscribers of its kind whose
// minimum-score filter the event passes. Delivery is async; Dispatch only
// fails when the subscriber lookup does.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	subs, err := d.store.GetByEvent(ctx, event.Kind)
	if err != nil {
		return fmt.Errorf("failed to get subscribers: %w", err)
	}

	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		if event.Score < sub.MinScore {
			continue
		}

		// Send async to avoid blocking
		go d.send(sub, event)
	}

	return nil
}

// SendTest synchronously delivers a synthetic event to one subscription,
// bypassing its kind and score filters. Delivery bookkeeping is updated the
// same way as for real events.
func (d *Dispatcher) SendTest(ctx context.Context, sub *Subscription) error {
	event := &Event{
		ID:        idgen.WithPrefix("evt_"),
		Kind:      EventTest,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": "test delivery",
		},
	}
	return d.deliver(ctx, sub, event)
}

// send owns the lifetime of one async delivery. It deliberately detaches
// from the caller's context: Dispatch returns before delivery completes.
func (d *Dispatcher) send(sub *Subscription, event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	_ = d.deliver(ctx, sub, event)
}

func (d *Dispatcher) deliver(ctx context.Context, sub *Subscription, event *Event) error {
	ctx, span := traces.StartSpan(ctx, "alerts.deliver", traces.SubscriptionID(sub.ID))
	defer span.End()

	if err := d.ValidateURL(sub.URL); err != nil {
		d.recordFailure(ctx, sub.ID, fmt.Sprintf("blocked URL: %v", err))
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.recordFailure(ctx, sub.ID, "failed to marshal event")
		return err
	}

	err = retry.Do(ctx, d.cfg.MaxAttempts, d.cfg.BaseDelay, func() error {
		return d.post(ctx, sub, event, payload)
	})
	if err != nil {
		metrics.AlertDeliveriesTotal.WithLabelValues("error").Inc()
		d.recordFailure(ctx, sub.ID, err.Error())
		return err
	}

	metrics.AlertDeliveriesTotal.WithLabelValues("success").Inc()
	d.recordSuccess(ctx, sub.ID)
	return nil
}

func (d *Dispatcher) post(ctx context.Context, sub *Subscription, event *Event, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, "POST", sub.URL, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shoewatch-Event", string(event.Kind))
	req.Header.Set("X-Shoewatch-Timestamp", fmt.Sprintf("%d", event.Timestamp.Unix()))

	// Sign the payload if secret is set
	if sub.Secret != "" {
		req.Header.Set("X-Shoewatch-Signature", d.sign(payload, sub.Secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return fmt.Errorf("status %d", resp.StatusCode)
	default:
		// Other 4xx responses will not improve on retry.
		return retry.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	}
}

func (d *Dispatcher) sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (d *Dispatcher) recordSuccess(ctx context.Context, id string) {
	sub, err := d.store.Get(ctx, id)
	if err != nil {
		return
	}
	now := time.Now()
	sub.LastSuccess = &now
	sub.LastError = ""
	sub.ConsecutiveFailures = 0
	_ = d.store.Update(ctx, sub)
}

func (d *Dispatcher) recordFailure(ctx context.Context, id, errMsg string) {
	sub, err := d.store.Get(ctx, id)
	if err != nil {
		return
	}
	sub.LastError = errMsg
	sub.ConsecutiveFailures++
	if d.cfg.MaxFailures > 0 && sub.ConsecutiveFailures >= d.cfg.MaxFailures {
		sub.Active = false
	}
	_ = d.store.Update(ctx, sub)
}
