package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	. "github.com/trezcool/coaching/apps/api/echo"
	"github.com/trezcool/coaching/core"
)

func Test_jwtAuth(t *testing.T) {
	env := setup(t)
	errInvalidToken := httpErr{Error: "invalid or expired jwt"}

	sign := func(claims *Claims) string {
		token, err := GenerateToken(conf, claims)
		if err != nil {
			t.Fatalf("GenerateToken() failed: %v", err)
		}
		return token
	}
	expired := NewClaims(conf, teacher)
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	otherKey := *conf
	otherKey.SecretKey = "lol"
	forged, err := GenerateToken(&otherKey, NewClaims(&otherKey, admin))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	env.run(t, []httpTest{
		{name: "Missing", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "Malformed", path: "/v1/students", token: "lol", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken)},
		{name: "Expired", path: "/v1/students", token: sign(expired), wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken)},
		{name: "Wrong key", path: "/v1/students", token: forged, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken)},
		{
			name: "Unknown role", path: "/v1/students", token: sign(NewClaims(conf, core.Identity{UserID: "u-1", Role: "root"})),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken),
		},
		{
			name: "No subject", path: "/v1/students", token: sign(NewClaims(conf, core.Identity{Role: core.RoleAdmin})),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken),
		},
		{name: "Valid", path: "/v1/students", token: sign(NewClaims(conf, admin)), wantCode: http.StatusOK},
	})
}
