package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/OrlandoBitencourt/flagx/internal/logging"
)

// Webhook event types
const (
	EventFlagUpdated  = "flag.updated"
	EventFlagDeleted  = "flag.deleted"
	EventCacheCleared = "cache.cleared"
)

const maxWebhookBody = 1 << 20

// WebhookServer receives change notifications from the flag service and
// invalidates the affected cache entries.
type WebhookServer struct {
	cache  CacheInterface
	secret string
	logger logging.Logger
	router *mux.Router
	ln     *listener
}

// WebhookPayload represents the webhook payload
type WebhookPayload struct {
	Event    string   `json:"event"`
	FlagKeys []string `json:"flag_keys"`
	// Targets limits invalidation to these target IDs. Empty means every
	// cached target of each flag.
	Targets   []string `json:"targets,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// NewWebhookServer creates a new webhook server. An empty secret disables
// signature verification.
func NewWebhookServer(cache CacheInterface, addr, secret string, logger logging.Logger) *WebhookServer {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	w := &WebhookServer{
		cache:  cache,
		secret: secret,
		logger: logger,
		router: mux.NewRouter(),
	}
	w.router.HandleFunc("/webhook", w.handleWebhook).Methods(http.MethodPost)

	w.ln = &listener{name: "webhook", addr: addr, logger: logger, handler: w.router}
	return w
}

// Handler returns the webhook routes.
func (w *WebhookServer) Handler() http.Handler {
	return w.router
}

// Start starts the webhook HTTP server in the background
func (w *WebhookServer) Start() error {
	return w.ln.start()
}

// Addr returns the bound address, or "" before Start.
func (w *WebhookServer) Addr() string {
	return w.ln.address()
}

// Shutdown gracefully stops the server
func (w *WebhookServer) Shutdown(ctx context.Context) error {
	return w.ln.shutdown(ctx)
}

func (w *WebhookServer) handleWebhook(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(rw, "Failed to read body", http.StatusBadRequest)
		return
	}

	if w.secret != "" && !w.verifySignature(r, body) {
		w.logger.Warn("rejected webhook with invalid signature", "remote_addr", r.RemoteAddr)
		http.Error(rw, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !w.handleEvent(payload) {
		http.Error(rw, "Unknown event", http.StatusBadRequest)
		return
	}

	writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
}

func (w *WebhookServer) verifySignature(r *http.Request, body []byte) bool {
	signature := r.Header.Get("X-Webhook-Signature")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(w.secret))
	mac.Write(body)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

func (w *WebhookServer) handleEvent(payload WebhookPayload) bool {
	switch payload.Event {
	case EventFlagUpdated, EventFlagDeleted:
		for _, key := range payload.FlagKeys {
			if len(payload.Targets) == 0 {
				w.cache.InvalidateFlag(key)
				continue
			}
			for _, target := range payload.Targets {
				w.cache.Invalidate(key, target)
			}
		}
	case EventCacheCleared:
		w.cache.InvalidateAll()
	default:
		w.logger.Warn("ignoring unknown webhook event", "event", payload.Event)
		return false
	}

	w.logger.Info("webhook processed",
		"event", payload.Event,
		"flags", len(payload.FlagKeys),
	)
	return true
}
