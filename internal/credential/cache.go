// Package credential keeps the QRZ session key across runs. A key is issued
// at most once per calendar day; later runs on the same day reuse it.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
)

// Store persists the issue date and key. Load returns a zero Credential when
// either field is missing or unreadable. Save must write both fields together.
type Store interface {
	Load(ctx context.Context) (domain.Credential, error)
	Save(ctx context.Context, c domain.Credential) error
}

// Issuer exchanges the configured username and password for a fresh key.
type Issuer interface {
	IssueKey(ctx context.Context) (string, error)
}

// Cache hands out a session key that is valid for the requested day.
type Cache struct {
	store   Store
	issuer  Issuer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCache creates a Cache over the given store and issuer.
func NewCache(store Store, issuer Issuer, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{store: store, issuer: issuer, logger: logger, metrics: metrics}
}

// Token returns the stored key when it was issued on today, and otherwise
// issues, stores, and returns a new one. Issuance and store failures are
// returned unchanged in meaning; the caller must not proceed without a key.
func (c *Cache) Token(ctx context.Context, today domain.Date) (string, error) {
	stored, err := c.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load qrz key: %w", err)
	}

	if stored.ValidOn(today) {
		c.logger.Debug("qrz key unchanged", "issued", stored.Issued.String())
		c.metrics.Tokens.WithLabelValues("cached").Inc()
		return stored.Key, nil
	}

	key, err := c.issuer.IssueKey(ctx)
	if err != nil {
		return "", fmt.Errorf("issue qrz key: %w", err)
	}
	if key == "" {
		return "", errors.New("issue qrz key: empty key")
	}

	fresh := domain.Credential{Key: key, Issued: today}
	if err := c.store.Save(ctx, fresh); err != nil {
		return "", fmt.Errorf("save qrz key: %w", err)
	}
	c.metrics.Tokens.WithLabelValues("issued").Inc()

	if stored.Key == "" || stored.Issued.IsZero() {
		c.logger.Info("qrz key created", "issued", today.String())
	} else {
		c.logger.Info("qrz key updated", "previous", stored.Issued.String(), "issued", today.String())
	}
	return key, nil
}
