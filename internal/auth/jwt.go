package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Claims holds the JWT payload. A token identifies one player in one
// game; there are no user accounts behind it.
type Claims struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret. Tokens
// outlive most games; a finished game rejects actions regardless.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: 7 * 24 * time.Hour,
	}
}

// GeneratePlayerToken creates a token binding a player to a game.
func (m *JWTManager) GeneratePlayerToken(gameID, playerID string) (string, error) {
	claims := &Claims{
		GameID:   gameID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   playerID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT string, returning the claims.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// PlayerToken is the credential handed back on create and join.
type PlayerToken struct {
	Token     string `json:"token"`
	GameID    string `json:"game_id"`
	PlayerID  string `json:"player_id"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// IssuePlayerToken creates the response credential for a new player.
func (m *JWTManager) IssuePlayerToken(gameID, playerID string) (*PlayerToken, error) {
	token, err := m.GeneratePlayerToken(gameID, playerID)
	if err != nil {
		return nil, err
	}
	return &PlayerToken{
		Token:     token,
		GameID:    gameID,
		PlayerID:  playerID,
		ExpiresIn: int(m.expiry.Seconds()),
	}, nil
}
