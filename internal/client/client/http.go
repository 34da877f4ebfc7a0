package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mayankramina/secure-file-share/internal/client/models"
	"github.com/mayankramina/secure-file-share/internal/common"
)

// HTTPClient implements Client over the backend's HTTP/JSON API. It keeps
// the access token from Login and sends it as a Bearer header.
type HTTPClient struct {
	baseURL     string
	http        *http.Client
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Message string `json:"error"`
}

// statusError maps HTTP status codes back to the shared sentinel errors, so
// callers can use errors.Is the same way they would against the services.
func statusError(status int, msg string) error {
	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = common.ErrValidation
	case http.StatusUnauthorized:
		sentinel = common.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = common.ErrForbidden
	case http.StatusNotFound:
		sentinel = common.ErrNotFound
	case http.StatusConflict:
		sentinel = common.ErrAlreadyExists
	case http.StatusBadGateway:
		sentinel = common.ErrUpstream
	default:
		sentinel = common.ErrInternal
	}
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		return statusError(resp.StatusCode, ae.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// --- auth ---

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "password": password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, &resp)
	if err != nil {
		return err
	}
	c.accessToken = resp.AccessToken
	return nil
}

// --- kms ---

func (c *HTTPClient) GetPublicKey(ctx context.Context) (string, error) {
	var resp struct {
		PublicKey string `json:"public_key"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/kms/key", nil, &resp); err != nil {
		return "", err
	}
	return resp.PublicKey, nil
}

func (c *HTTPClient) DecryptKey(ctx context.Context, wrappedKey, keyOwner string) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	err := c.do(ctx, http.MethodPost, "/api/kms/decrypt",
		map[string]string{"wrapped_key": wrappedKey, "key_owner": keyOwner}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

// --- files ---

type fileDTO struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	Owner      string `json:"owner"`
	CreatedAt  string `json:"created_at"`
	Permission string `json:"permission"`
}

func (d fileDTO) toModel() *models.File {
	return &models.File{
		ID:         d.ID,
		FileName:   d.FileName,
		Owner:      d.Owner,
		CreatedAt:  d.CreatedAt,
		Permission: d.Permission,
	}
}

func (c *HTTPClient) UploadFile(ctx context.Context, fileName, ciphertextB64, wrappedKey string) (*models.File, error) {
	var resp fileDTO
	err := c.do(ctx, http.MethodPost, "/api/files/upload", map[string]string{
		"file_name":   fileName,
		"ciphertext":  ciphertextB64,
		"wrapped_key": wrappedKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

func (c *HTTPClient) DownloadFile(ctx context.Context, fileID string) (*models.Download, error) {
	var resp struct {
		FileName   string `json:"file_name"`
		Owner      string `json:"owner"`
		Ciphertext string `json:"ciphertext"`
		WrappedKey string `json:"wrapped_key"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/files/"+fileID+"/download", nil, &resp); err != nil {
		return nil, err
	}
	return &models.Download{
		FileName:      resp.FileName,
		Owner:         resp.Owner,
		CiphertextB64: resp.Ciphertext,
		WrappedKey:    resp.WrappedKey,
	}, nil
}

func (c *HTTPClient) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	var resp fileDTO
	if err := c.do(ctx, http.MethodGet, "/api/files/"+fileID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

func (c *HTTPClient) ListFiles(ctx context.Context) ([]*models.File, error) {
	var resp struct {
		Files []fileDTO `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/files/list", nil, &resp); err != nil {
		return nil, err
	}
	list := make([]*models.File, 0, len(resp.Files))
	for _, d := range resp.Files {
		list = append(list, d.toModel())
	}
	return list, nil
}

func (c *HTTPClient) ListSharedWithMe(ctx context.Context) ([]*models.SharedFile, error) {
	var resp struct {
		Files []struct {
			fileDTO
			ShareID string `json:"share_id"`
		} `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/shares/me", nil, &resp); err != nil {
		return nil, err
	}
	list := make([]*models.SharedFile, 0, len(resp.Files))
	for _, d := range resp.Files {
		list = append(list, &models.SharedFile{File: *d.toModel(), ShareID: d.ShareID})
	}
	return list, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, fileID string) error {
	return c.do(ctx, http.MethodDelete, "/api/files/"+fileID, nil, nil)
}

// --- shares ---

type shareDTO struct {
	ID         string `json:"id"`
	FileID     string `json:"file_id"`
	Grantee    string `json:"grantee"`
	Permission string `json:"permission"`
}

func (d shareDTO) toModel() *models.Share {
	return &models.Share{ID: d.ID, FileID: d.FileID, Grantee: d.Grantee, Permission: d.Permission}
}

func (c *HTTPClient) ShareFile(ctx context.Context, fileID, username, permission string) (*models.Share, error) {
	var resp shareDTO
	err := c.do(ctx, http.MethodPost, "/api/files/"+fileID+"/shares",
		map[string]string{"username": username, "permission": permission}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

func (c *HTTPClient) ListShares(ctx context.Context, fileID string) ([]*models.Share, error) {
	var resp struct {
		Shares []shareDTO `json:"shares"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/files/"+fileID+"/shares", nil, &resp); err != nil {
		return nil, err
	}
	list := make([]*models.Share, 0, len(resp.Shares))
	for _, d := range resp.Shares {
		list = append(list, d.toModel())
	}
	return list, nil
}

func (c *HTTPClient) UpdateShare(ctx context.Context, fileID, shareID, permission string) (*models.Share, error) {
	var resp shareDTO
	err := c.do(ctx, http.MethodPatch, "/api/files/"+fileID+"/shares/"+shareID,
		map[string]string{"permission": permission}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

func (c *HTTPClient) RevokeShare(ctx context.Context, fileID, shareID string) error {
	return c.do(ctx, http.MethodDelete, "/api/files/"+fileID+"/shares/"+shareID, nil, nil)
}

// --- links ---

func (c *HTTPClient) GenerateLink(ctx context.Context, fileID string) (*models.Link, error) {
	var resp struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/files/"+fileID+"/links/generate", nil, &resp); err != nil {
		return nil, err
	}
	return &models.Link{Token: resp.Token, URL: resp.URL}, nil
}

func (c *HTTPClient) VerifyLink(ctx context.Context, token string) (string, error) {
	var resp struct {
		FileID string `json:"file_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/files/links/verify",
		map[string]string{"token": token}, &resp)
	if err != nil {
		return "", err
	}
	return resp.FileID, nil
}
