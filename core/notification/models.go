package notification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coaching/core"
)

type DeviceType string

const (
	DeviceWeb    DeviceType = "WEB"
	DeviceMobile DeviceType = "MOBILE"
)

// DeviceToken addresses push notifications to one app/browser instance of a user.
type DeviceToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Token      string     `json:"-"`
	DeviceID   string     `json:"device_id,omitempty"`
	DeviceType DeviceType `json:"device_type"`
	Browser    string     `json:"browser,omitempty"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt time.Time  `json:"last_used_at"` // UTC
	CreatedAt  time.Time  `json:"created_at"`   // UTC
	UpdatedAt  time.Time  `json:"updated_at"`   // UTC
}

// NewDeviceToken contains information needed to register a device token for the current user.
type NewDeviceToken struct {
	Token      string     `json:"token" validate:"required,notblank"`
	DeviceID   string     `json:"device_id" validate:"omitempty,max=255"`
	DeviceType DeviceType `json:"device_type" validate:"omitempty,oneof=WEB MOBILE"`
	Browser    string     `json:"browser" validate:"omitempty,max=100"`
}

func (nt *NewDeviceToken) Validate(_ context.Context, validate *validator.Validate) error {
	nt.Token = core.CleanString(nt.Token)
	nt.DeviceID = core.CleanString(nt.DeviceID)
	nt.DeviceType = DeviceType(core.CleanString(string(nt.DeviceType)))
	nt.Browser = core.CleanString(nt.Browser)
	if nt.DeviceType == "" {
		nt.DeviceType = DeviceWeb
	}
	return validate.Struct(nt)
}

// Message is a push notification.
type Message struct {
	Title       string            `json:"title" validate:"required,notblank,max=200"`
	Body        string            `json:"body" validate:"required,notblank"`
	Data        map[string]string `json:"data"`
	ClickAction string            `json:"click_action"`
}

// payload returns a copy of m whose data block also carries title, body and url,
// so that clients handling data-only messages can still display it.
func (m Message) payload() Message {
	data := make(map[string]string, len(m.Data)+3)
	for k, v := range m.Data {
		data[k] = v
	}
	url := m.ClickAction
	if url == "" {
		url = "/"
	}
	data["title"] = m.Title
	data["body"] = m.Body
	data["url"] = url

	m.Data = data
	m.ClickAction = url
	return m
}

// MaxPayloadSize is the largest notification + data payload, in bytes, push providers accept.
const MaxPayloadSize = 4096

var (
	reservedDataKeys     = []string{"from", "notification", "message_type", "collapse_key"}
	reservedDataPrefixes = []string{"google", "gcm"}
)

func isReservedDataKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range reservedDataKeys {
		if key == k {
			return true
		}
	}
	for _, prefix := range reservedDataPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// CheckPayload reports the problems providers would reject the message for, whatever the token.
func (m Message) CheckPayload() error {
	keys := make([]string, 0, len(m.Data))
	for k := range m.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" || isReservedDataKey(k) {
			return core.NewValidationError(ErrReservedDataKey, core.FieldError{Field: "data", Error: fmt.Sprintf("%q is a reserved key", k)})
		}
	}

	p := m.payload()
	size := len(p.Title) + len(p.Body)
	for k, v := range p.Data {
		size += len(k) + len(v)
	}
	if size > MaxPayloadSize {
		return core.NewValidationError(ErrPayloadTooLarge, core.FieldError{
			Field: "body",
			Error: fmt.Sprintf("notification is too large (%d bytes, at most %d)", size, MaxPayloadSize),
		})
	}
	return nil
}

// Report summarizes one dispatch.
type Report struct {
	Tokens      int   `json:"tokens"` // active tokens resolved
	Attempted   int   `json:"attempted"`
	Succeeded   int   `json:"succeeded"`
	Failed      int   `json:"failed"`
	Deactivated int   `json:"deactivated"`
	Err         error `json:"-"` // configuration, payload or token lookup failure
}

// Sent reports whether delivery was attempted to at least one token.
func (r Report) Sent() bool {
	return r.Err == nil && r.Attempted > 0
}

type CleanupFilter struct {
	InactiveBefore time.Time // inactive tokens last updated before
	UnusedBefore   time.Time // tokens last used before
}
