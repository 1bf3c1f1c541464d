package notifier

import (
	"context"
	"encoding/json"
	"time"

	"territory-run/internal/game/config"
	"territory-run/internal/game/domain/client"
	"territory-run/internal/shared/logger"

	"github.com/valyala/fasthttp"
)

// PushNotifier delivers push notifications through an FCM-compatible HTTP
// endpoint. All delivery is fire-and-forget: failures are logged and never
// surface to the caller. With no server key configured, delivery is disabled
// and notifications are logged only, which is the local-development mode.
type PushNotifier struct {
	auth     client.AuthClient
	endpoint string
	key      string
	timeout  time.Duration
	http     *fasthttp.Client
	log      logger.Logger
}

type pushPayload struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    pushNotification  `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewPushNotifier creates the notifier.
func NewPushNotifier(auth client.AuthClient, cfg config.PushConfig, log logger.Logger) *PushNotifier {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PushNotifier{
		auth:     auth,
		endpoint: cfg.Endpoint,
		key:      cfg.ServerKey,
		timeout:  timeout,
		http:     &fasthttp.Client{},
		log:      log.WithComponent("push-notifier"),
	}
}

// Notify sends one notification to every registered device of the given
// users. Returns immediately; the actual delivery happens in the background.
func (n *PushNotifier) Notify(ctx context.Context, userIDs []string, title, body string, data map[string]string) {
	if len(userIDs) == 0 {
		return
	}
	go n.deliver(ctx, userIDs, title, body, data)
}

func (n *PushNotifier) deliver(ctx context.Context, userIDs []string, title, body string, data map[string]string) {
	log := n.log.WithContext(ctx).WithFields(map[string]interface{}{
		"recipients": len(userIDs),
		"title":      title,
	})

	tokens, err := n.auth.FCMTokens(ctx, userIDs)
	if err != nil {
		log.Warnf("Push skipped, token lookup failed: %v", err)
		return
	}

	registrations := make([]string, 0)
	for _, userTokens := range tokens {
		registrations = append(registrations, userTokens...)
	}
	if len(registrations) == 0 {
		log.Debug("Push skipped, no registered devices")
		return
	}

	if n.key == "" {
		log.Infof("Push delivery disabled, would notify %d devices: %s", len(registrations), body)
		return
	}

	payload, err := json.Marshal(pushPayload{
		RegistrationIDs: registrations,
		Notification:    pushNotification{Title: title, Body: body},
		Data:            data,
	})
	if err != nil {
		log.Errorf("Push payload marshal failed: %v", err)
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "key="+n.key)
	req.SetBody(payload)

	if err := n.http.DoTimeout(req, resp, n.timeout); err != nil {
		log.Warnf("Push delivery failed: %v", err)
		return
	}
	if resp.StatusCode() >= 300 {
		log.Warnf("Push endpoint returned status %d", resp.StatusCode())
		return
	}
	log.Debugf("Push delivered to %d devices", len(registrations))
}
