package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidatePlayerToken(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	token, err := mgr.GeneratePlayerToken("game-1", "player-42")
	if err != nil {
		t.Fatalf("generate player token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.GameID != "game-1" {
		t.Errorf("expected game_id=game-1, got %s", claims.GameID)
	}
	if claims.PlayerID != "player-42" {
		t.Errorf("expected player_id=player-42, got %s", claims.PlayerID)
	}
	if claims.Subject != "player-42" {
		t.Errorf("expected subject=player-42, got %s", claims.Subject)
	}
}

func TestIssuePlayerToken(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	cred, err := mgr.IssuePlayerToken("game-1", "player-7")
	if err != nil {
		t.Fatalf("issue player token: %v", err)
	}
	if cred.Token == "" {
		t.Error("expected non-empty token")
	}
	if cred.GameID != "game-1" || cred.PlayerID != "player-7" {
		t.Errorf("credential = %s/%s, want game-1/player-7", cred.GameID, cred.PlayerID)
	}
	if cred.ExpiresIn != int((7 * 24 * time.Hour).Seconds()) {
		t.Errorf("expires_in = %d, want a week", cred.ExpiresIn)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	mgr1 := NewJWTManager("secret-one")
	mgr2 := NewJWTManager("secret-two")

	token, err := mgr1.GeneratePlayerToken("game-1", "player-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := mgr2.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	if _, err := mgr.ValidateToken("not-a-jwt"); err == nil {
		t.Error("expected error for garbage token")
	}
	if _, err := mgr.ValidateToken(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := &JWTManager{
		secret: []byte("test-secret"),
		expiry: -1 * time.Second,
	}
	token, err := mgr.GeneratePlayerToken("game-1", "player-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestDifferentPlayersGetDifferentTokens(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	t1, _ := mgr.GeneratePlayerToken("game-1", "alice")
	t2, _ := mgr.GeneratePlayerToken("game-1", "bob")
	if t1 == t2 {
		t.Error("different players should get different tokens")
	}
}
