package jwthandling

import (
	"testing"
	"time"
)

func TestManagementUserTokenRoundTrip(t *testing.T) {
	secret := "test-secret"

	tokenString, err := GenerateNewManagementUserToken(time.Minute, "user-1", "default", true, map[string]string{"k": "v"}, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, valid, err := ValidateManagementUserToken(tokenString, secret)
	if err != nil || !valid {
		t.Fatalf("token should validate: valid=%v err=%v", valid, err)
	}
	if claims.Subject != "user-1" || claims.InstanceID != "default" || !claims.IsAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, valid, _ := ValidateManagementUserToken(tokenString, "wrong-secret"); valid {
		t.Error("token must not validate with a different secret")
	}
}
