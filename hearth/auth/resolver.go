// Package auth resolves bearer tokens to user identities and gates access
// before a request reaches the economy core. The core itself trusts the
// resolved id unconditionally.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
)

// ErrUnauthorized signals a token Discord would not accept.
var ErrUnauthorized = errors.New("unauthorized")

const discordMeURL = "https://discord.com/api/users/@me"

// tokenCacheSize bounds the resolver cache; entries also age out so a
// revoked token stops working within cacheTTL.
const (
	tokenCacheSize = 4096
	cacheTTL       = 5 * time.Minute
)

// Identity is a resolved caller.
type Identity struct {
	ID       snowflake.ID
	Username string
}

// Resolver turns a verified bearer token into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

type cacheEntry struct {
	identity *Identity
	cachedAt time.Time
}

// DiscordResolver resolves tokens against Discord's users/@me endpoint and
// caches hits so the hot path stays off the network.
type DiscordResolver struct {
	httpClient *http.Client
	cache      *lru.Cache
}

func NewDiscordResolver() (*DiscordResolver, error) {
	cache, err := lru.New(tokenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return &DiscordResolver{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

func (r *DiscordResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if cached, ok := r.cache.Get(token); ok {
		entry := cached.(*cacheEntry)
		if time.Since(entry.cachedAt) < cacheTTL {
			return entry.identity, nil
		}
		r.cache.Remove(token)
	}

	identity, err := r.fetchIdentity(ctx, token)
	if err != nil {
		return nil, err
	}

	r.cache.Add(token, &cacheEntry{identity: identity, cachedAt: time.Now()})
	return identity, nil
}

func (r *DiscordResolver) fetchIdentity(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordMeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("discord API error: %s", string(body))
	}

	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	id, err := snowflake.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}

	slog.Debug("Identity resolved",
		slog.String("type", "http"),
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return &Identity{ID: id, Username: user.Username}, nil
}
