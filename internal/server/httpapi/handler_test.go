package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayankramina/secure-file-share/internal/cryptox"
	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/blob"
	"github.com/mayankramina/secure-file-share/internal/server/config"
	"github.com/mayankramina/secure-file-share/internal/server/kms"
	"github.com/mayankramina/secure-file-share/internal/server/repositories/memory"
	"github.com/mayankramina/secure-file-share/internal/server/services"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.AccessTokenValidityDuration = time.Minute

	m := memory.NewManager()
	kmsSvc := kms.NewService(nil, m, logger)
	blobs := blob.NewMemoryStore()
	userSvc := services.NewUserService(nil, m, cfg)
	shareSvc := services.NewShareService(nil, m, kmsSvc, logger)
	fileSvc := services.NewFileService(nil, m, blobs, shareSvc, kmsSvc, logger)
	linkSvc := services.NewLinkService(nil, m, cfg, logger)

	srv := NewHTTPServer(cfg.EndpointAddrHTTP, logger, userSvc, fileSvc, shareSvc, linkSvc, kmsSvc, cfg.SecretKey)
	return srv.Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func registerAndLogin(t *testing.T, h http.Handler, username string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "pw-" + username}
	rec := doRequest(t, h, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)["access_token"].(string)
}

// uploadEncrypted runs the client side of an upload against the API: fetch
// the public key, envelope-encrypt, post the ciphertext. Returns the file id
// and the plaintext used.
func uploadEncrypted(t *testing.T, h http.Handler, token, fileName string, plaintext []byte) string {
	t.Helper()

	rec := doRequest(t, h, http.MethodGet, "/api/kms/key", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pub, err := cryptox.ParsePublicKey([]byte(decodeBody(t, rec)["public_key"].(string)))
	require.NoError(t, err)

	key, err := cryptox.GenerateFileKey()
	require.NoError(t, err)
	sealed, err := cryptox.EncryptPayload(plaintext, key)
	require.NoError(t, err)
	wrapped, err := cryptox.WrapKey(key, pub)
	require.NoError(t, err)

	rec = doRequest(t, h, http.MethodPost, "/api/files/upload", token, map[string]string{
		"file_name":   fileName,
		"ciphertext":  base64.StdEncoding.EncodeToString(sealed),
		"wrapped_key": wrapped,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody(t, rec)["id"].(string)
}

func TestAuthEndpoints(t *testing.T) {
	h := newTestServer(t)

	creds := map[string]string{"username": "alice", "password": "hunter2"}

	rec := doRequest(t, h, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusCreated, rec.Code)

	t.Run("duplicate registration", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/auth/register", "", creds)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("login", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/auth/login", "", creds)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decodeBody(t, rec)["access_token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/auth/login", "",
			map[string]string{"username": "alice", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/files/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/files/list", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFileEndpoints(t *testing.T) {
	h := newTestServer(t)
	alice := registerAndLogin(t, h, "alice")
	bob := registerAndLogin(t, h, "bob")

	fileID := uploadEncrypted(t, h, alice, "notes.txt", []byte("secret notes"))

	t.Run("list own", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/files/list", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		files := decodeBody(t, rec)["files"].([]any)
		require.Len(t, files, 1)
		assert.Equal(t, "notes.txt", files[0].(map[string]any)["file_name"])
	})

	t.Run("owner metadata", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/files/"+fileID, alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "alice", body["owner"])
		assert.Equal(t, "OWNER", body["permission"])
	})

	t.Run("stranger sees 404, not 403", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/files/"+fileID, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/download", bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/permission", bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown file also 404", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/files/no-such-id", alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upload validation", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/files/upload", alice,
			map[string]string{"file_name": "x", "ciphertext": "not base64!!!", "wrapped_key": "k"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		victim := uploadEncrypted(t, h, alice, "temp.txt", []byte("temp"))

		rec := doRequest(t, h, http.MethodDelete, "/api/files/"+victim, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, h, http.MethodDelete, "/api/files/"+victim, alice, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(t, h, http.MethodGet, "/api/files/"+victim, alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestShareAndDownloadFlow(t *testing.T) {
	h := newTestServer(t)
	alice := registerAndLogin(t, h, "alice")
	bob := registerAndLogin(t, h, "bob")

	plaintext := []byte("hello")
	fileID := uploadEncrypted(t, h, alice, "hello.txt", plaintext)

	// VIEW first: metadata visible, ciphertext and key still locked.
	rec := doRequest(t, h, http.MethodPost, "/api/files/"+fileID+"/shares", alice,
		map[string]string{"username": "bob", "permission": "VIEW"})
	require.Equal(t, http.StatusCreated, rec.Code)
	shareID := decodeBody(t, rec)["id"].(string)

	rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/permission", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VIEW", decodeBody(t, rec)["permission"])

	rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/download", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Upgrade to DOWNLOAD and run the whole client decryption path.
	rec = doRequest(t, h, http.MethodPatch, "/api/files/"+fileID+"/shares/"+shareID, alice,
		map[string]string{"permission": "DOWNLOAD"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/download", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	download := decodeBody(t, rec)

	rec = doRequest(t, h, http.MethodPost, "/api/kms/decrypt", bob, map[string]string{
		"wrapped_key": download["wrapped_key"].(string),
		"key_owner":   download["owner"].(string),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	key, err := base64.StdEncoding.DecodeString(decodeBody(t, rec)["key"].(string))
	require.NoError(t, err)
	sealed, err := base64.StdEncoding.DecodeString(download["ciphertext"].(string))
	require.NoError(t, err)
	got, err := cryptox.DecryptPayload(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	t.Run("shared with me", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/shares/me", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		files := decodeBody(t, rec)["files"].([]any)
		require.Len(t, files, 1)
		assert.Equal(t, "DOWNLOAD", files[0].(map[string]any)["permission"])
	})

	t.Run("share list", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/shares", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		shares := decodeBody(t, rec)["shares"].([]any)
		require.Len(t, shares, 1)
		assert.Equal(t, "bob", shares[0].(map[string]any)["grantee"])

		// A grantee may list too; a stranger may not.
		rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/shares", bob, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		carol := registerAndLogin(t, h, "carol")
		rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/shares", carol, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	// Revoke: download and key unwrap both close again.
	rec = doRequest(t, h, http.MethodDelete, "/api/files/"+fileID+"/shares/"+shareID, alice, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/download", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/kms/decrypt", bob, map[string]string{
		"wrapped_key": download["wrapped_key"].(string),
		"key_owner":   "alice",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLinkEndpoints(t *testing.T) {
	h := newTestServer(t)
	alice := registerAndLogin(t, h, "alice")
	bob := registerAndLogin(t, h, "bob")

	fileID := uploadEncrypted(t, h, alice, "doc.txt", []byte("doc"))

	rec := doRequest(t, h, http.MethodPost, "/api/files/"+fileID+"/links/generate", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/files/"+fileID+"/links/generate", alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	token := body["token"].(string)
	assert.Len(t, token, 32)
	assert.Contains(t, body["url"].(string), "/share/"+token)

	t.Run("verify", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/files/links/verify", "",
			map[string]string{"token": token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fileID, decodeBody(t, rec)["file_id"])
	})

	t.Run("verify unknown token", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/files/links/verify", "",
			map[string]string{"token": "ffffffffffffffffffffffffffffffff"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("link grants no access", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/files/"+fileID+"/download", bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
