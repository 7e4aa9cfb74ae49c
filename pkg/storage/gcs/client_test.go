package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/pkg/config"
)

func staticTokens(token string) *tokenSource {
	return &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		return token, time.Now().Add(time.Hour), nil
	}}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newClient(srv.Client(), config.GCSConfig{
		BucketName:    "joyas",
		APIBaseURL:    srv.URL,
		PublicBaseURL: "https://cdn.example.com/",
	}, staticTokens("tok"))
}

func TestUploadSendsMediaRequest(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/storage/v1/b/joyas/o", r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("uploadType"))
		assert.Equal(t, "products/2026/10/a b.png", r.URL.Query().Get("name"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	u, err := client.Upload(context.Background(), "products/2026/10/a b.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", gotBody)
	assert.Equal(t, "https://cdn.example.com/joyas/products/2026/10/a%20b.png", u)
}

func TestUploadSurfacesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusForbidden)
	})
	_, err := client.Upload(context.Background(), "x.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestDeleteObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if strings.Contains(r.URL.EscapedPath(), "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "/storage/v1/b/joyas/o/proofs%2F2026%2F10%2Fp.pdf", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), "proofs/2026/10/p.pdf"))
	assert.ErrorIs(t, client.Delete(context.Background(), "missing.pdf"), ErrObjectNotFound)
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, client.Ping(context.Background()))
}

func TestTokenSourceCaches(t *testing.T) {
	calls := 0
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		calls++
		return "t", time.Now().Add(time.Hour), nil
	}}
	for i := 0; i < 3; i++ {
		tok, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "t", tok)
	}
	assert.Equal(t, 1, calls)
}

func TestServiceAccountTokenExchange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))
		claims := &assertionClaims{}
		_, err := jwt.ParseWithClaims(r.PostForm.Get("assertion"), claims, func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		assert.NoError(t, err)
		assert.Equal(t, "svc@example.com", claims.Issuer)
		assert.Equal(t, scope, claims.Scope)
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "exchanged", ExpiresIn: 3600})
	}))
	defer srv.Close()

	creds, err := json.Marshal(map[string]string{
		"client_email": "svc@example.com",
		"private_key":  string(keyPEM),
		"token_uri":    srv.URL,
	})
	require.NoError(t, err)

	ts, err := newServiceAccountTokenSource(srv.Client(), string(creds))
	require.NoError(t, err)
	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "exchanged", tok)
}

func TestServiceAccountRejectsBadCredentials(t *testing.T) {
	_, err := newServiceAccountTokenSource(http.DefaultClient, `{"client_email":""}`)
	assert.Error(t, err)
	_, err = parsePrivateKey("not pem")
	assert.Error(t, err)
}
