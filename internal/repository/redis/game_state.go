package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game data.
func stateKey(gameID string) string   { return "game:" + gameID + ":state" }
func channelKey(gameID string) string { return "game:" + gameID + ":events" }

// stateTTL bounds how long a projection cached for a dead game lingers.
// Active games refresh the key on every committed mutation.
const stateTTL = 24 * time.Hour

// SetGameState stores the projected game state JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), stateTTL).Err()
}

// GetGameState retrieves the projected game state JSON. A cache miss
// returns nil with no error; callers fall back to Postgres.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// PublishEvent pushes a committed event onto the game's pub/sub
// channel for WebSocket fan-out.
func (c *Client) PublishEvent(ctx context.Context, gameID string, event json.RawMessage) error {
	return c.rdb.Publish(ctx, channelKey(gameID), []byte(event)).Err()
}

// SubscribeGame subscribes to a game's event channel.
func (c *Client) SubscribeGame(ctx context.Context, gameID string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channelKey(gameID))
}

// DeleteGameData removes all Redis data for a game.
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID)).Err()
}
