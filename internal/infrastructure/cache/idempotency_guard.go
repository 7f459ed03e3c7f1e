package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

const defaultKeyPrefix = "lotes:venta:"

var _ inventory.IdempotencyGuard = (*IdempotencyGuard)(nil)

// IdempotencyGuard marca ventas aplicadas en Redis con SETNX y TTL,
// compartido entre todas las instancias de la API.
type IdempotencyGuard struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewIdempotencyGuard construye la guarda. ttl 0 deja la marca sin vencimiento.
func NewIdempotencyGuard(client *redis.Client, keyPrefix string, ttl time.Duration) *IdempotencyGuard {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &IdempotencyGuard{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Acquire toma la clave; false si otra solicitud ya la tenía.
func (g *IdempotencyGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire idempotency key: %w", err)
	}
	return ok, nil
}

// Release libera la clave para permitir reintentar una venta que falló.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
