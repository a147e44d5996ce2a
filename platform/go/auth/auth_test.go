package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/wedding-admin/platform/go/auth/devtoken"
)

func TestDefaultCredentialExtractor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		claims    map[string]interface{}
		wantID    string
		wantAdmin bool
		wantErr   bool
	}{
		{name: "uid and admin flag", claims: map[string]interface{}{"uid": "u-1", "isAdmin": true}, wantID: "u-1", wantAdmin: true},
		{name: "sub with admin role", claims: map[string]interface{}{"sub": "u-2", "roles": []interface{}{"editor", "admin"}}, wantID: "u-2", wantAdmin: true},
		{name: "plain user", claims: map[string]interface{}{"user_id": "u-3"}, wantID: "u-3"},
		{name: "no subject", claims: map[string]interface{}{"email": "x@example.com"}, wantErr: true},
		{name: "nil claims", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			creds, err := DefaultCredentialExtractor(tc.claims)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantID, creds.Id)
			require.Equal(t, tc.wantAdmin, creds.IsAdmin)
		})
	}
}

func TestJWTMiddleware(t *testing.T) {
	t.Parallel()

	var seen *UserCredentials
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	reject := JWT(func(context.Context, string) (map[string]interface{}, error) {
		return nil, errors.New("expired")
	}, nil)(next)

	t.Run("missing token passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		reject.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		reject.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("unsigned dev token sets credentials", func(t *testing.T) {
		token, err := devtoken.BuildUnsignedToken(devtoken.Params{UserID: "admin-9", Email: "a@example.com", IsAdmin: true}, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+token)
		rec := httptest.NewRecorder()
		JWT(UnsignedTokenVerifier(), nil)(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, "admin-9", seen.Id)
		require.True(t, seen.IsAdmin)
	})
}

func TestHMACTokenVerifier(t *testing.T) {
	t.Parallel()

	secret := []byte("shared-secret")
	verify := HMACTokenVerifier(secret)
	now := time.Now()

	good, err := devtoken.BuildSignedToken(devtoken.Params{UserID: "admin-1", Email: "a@example.com"}, secret, now)
	require.NoError(t, err)
	claims, err := verify(context.Background(), good)
	require.NoError(t, err)
	require.Equal(t, "admin-1", claims["sub"])

	forged, err := devtoken.BuildSignedToken(devtoken.Params{UserID: "admin-1", Email: "a@example.com"}, []byte("other"), now)
	require.NoError(t, err)
	_, err = verify(context.Background(), forged)
	require.Error(t, err)

	expired, err := devtoken.BuildSignedToken(devtoken.Params{UserID: "admin-1", Email: "a@example.com", ExpiresIn: time.Minute}, secret, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = verify(context.Background(), expired)
	require.Error(t, err)

	unsigned, err := devtoken.BuildUnsignedToken(devtoken.Params{UserID: "admin-1", Email: "a@example.com"}, now)
	require.NoError(t, err)
	_, err = verify(context.Background(), unsigned)
	require.Error(t, err)
}

func TestRequireAuthenticatedAndRole(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	chain := RequireAuthenticated(RequireRole("admin")(ok))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &UserCredentials{Id: "guest"}))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `role \"admin\" is required`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &UserCredentials{Id: "admin", IsAdmin: true}))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
