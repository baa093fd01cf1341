// Package push delivers web push notifications to registered browser
// subscriptions using VAPID.
package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/minikapp/minik/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when the push service reports 410 Gone. The
// subscription should be pruned.
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON body delivered to the service worker. Tag lets the
// browser collapse repeated notifications for the same reminder.
type Payload struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	URL                string `json:"url,omitempty"`
	Tag                string `json:"tag,omitempty"`
	RequireInteraction bool   `json:"require_interaction,omitempty"`
}

// Service sends web push notifications signed with a VAPID key pair.
type Service struct {
	publicKey  string
	privateKey string
}

func NewService(publicKey, privateKey string) *Service {
	return &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
	}
}

// VAPIDPublicKey returns the public key handed to browsers at subscribe time.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send pushes one payload to one subscription.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      "mailto:noreply@minik.app",
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// GenerateVAPIDKeys generates an ECDSA P-256 key pair in the encoding
// VAPID expects. Used by the keygen subcommand on first setup.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
