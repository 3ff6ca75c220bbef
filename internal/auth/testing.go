package auth

import "context"

// SetClaimsForTest injects player claims into the context for testing
// purposes.
func SetClaimsForTest(ctx context.Context, gameID, playerID string) context.Context {
	return context.WithValue(ctx, claimsKey, &Claims{GameID: gameID, PlayerID: playerID})
}
