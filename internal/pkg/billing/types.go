package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ManuelReschke/tutorsite/app/models"
)

const (
	EventOrderCreated        = "order_created"
	EventOrderRefunded       = "order_refunded"
	EventSubscriptionCreated = "subscription_created"
	EventSubscriptionUpdated = "subscription_updated"
)

var (
	ErrInvalidPayload = errors.New("invalid webhook payload")
	ErrMissingUserID  = errors.New("missing user_id")
	ErrMissingOrderID = errors.New("missing order id")
)

// Event is the subset of a provider webhook the service acts on.
type Event struct {
	Meta EventMeta `json:"meta"`
	Data EventData `json:"data"`
}

type EventMeta struct {
	EventName  string     `json:"event_name"`
	CustomData CustomData `json:"custom_data"`
}

// CustomData is the checkout passthrough set by the storefront.
type CustomData struct {
	UserID     FlexString `json:"user_id"`
	ProductIDs StringList `json:"product_ids"`
}

type EventData struct {
	ID         FlexString      `json:"id"`
	Type       string          `json:"type"`
	Attributes EventAttributes `json:"attributes"`
}

type EventAttributes struct {
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	ev.Meta.EventName = strings.TrimSpace(ev.Meta.EventName)
	if ev.Meta.EventName == "" {
		return nil, fmt.Errorf("%w: meta.event_name is empty", ErrInvalidPayload)
	}
	return &ev, nil
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.Meta.EventName
}

// OrderID returns the provider order id (data.id).
func (e *Event) OrderID() string {
	return strings.TrimSpace(string(e.Data.ID))
}

// Key identifies a delivery for deduplication: one row per event name and order.
func (e *Event) Key() string {
	return e.Meta.EventName + ":" + e.OrderID()
}

// UserID parses custom_data.user_id.
func (e *Event) UserID() (uint, error) {
	raw := strings.TrimSpace(string(e.Meta.CustomData.UserID))
	if raw == "" {
		return 0, ErrMissingUserID
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not a user id", ErrMissingUserID, raw)
	}
	return uint(id), nil
}

// ProductIDs parses custom_data.product_ids and drops entries that are not ids.
func (e *Event) ProductIDs() (ids []uint, skipped []string) {
	seen := make(map[uint]struct{}, len(e.Meta.CustomData.ProductIDs))
	for _, raw := range e.Meta.CustomData.ProductIDs {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			skipped = append(skipped, raw)
			continue
		}
		if _, ok := seen[uint(id)]; ok {
			continue
		}
		seen[uint(id)] = struct{}{}
		ids = append(ids, uint(id))
	}
	return ids, skipped
}

// Amount converts the minor unit total to a decimal amount.
func (e *Event) Amount() float64 {
	return float64(e.Data.Attributes.Total) / 100
}

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// StringList accepts a JSON array of strings or numbers, or a comma separated
// string. Checkout custom data can only carry strings, so both shapes occur.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []FlexString
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s := strings.TrimSpace(string(it)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	}
	var single FlexString
	if err := single.UnmarshalJSON(b); err != nil {
		return err
	}
	s := strings.TrimSpace(string(single))
	if strings.HasPrefix(s, "[") {
		return l.UnmarshalJSON([]byte(s))
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider  string
	EventKey  string
	EventName string
	Payload   []byte
}

// Result describes what a delivery changed.
type Result struct {
	EventName        string
	Duplicate        bool
	Ignored          bool
	Refunded         bool
	Order            *models.Order
	PurchasesCreated int
	Note             string
}
