package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mayankramina/secure-file-share/internal/common"
	"github.com/mayankramina/secure-file-share/internal/server/auth"
	"github.com/mayankramina/secure-file-share/internal/server/models"
)

type fileDTO struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
}

type shareDTO struct {
	ID         string `json:"id"`
	FileID     string `json:"file_id"`
	Grantee    string `json:"grantee"`
	Permission string `json:"permission"`
}

func toFileDTO(f *models.FileRecord) fileDTO {
	return fileDTO{
		ID:        f.ID,
		FileName:  f.FileName,
		Owner:     f.OwnerUsername,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func toShareDTO(g *models.ShareGrant) shareDTO {
	return shareDTO{
		ID:         g.ID,
		FileID:     g.FileID,
		Grantee:    g.GranteeUsername,
		Permission: string(g.Permission),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// serviceError maps sentinel errors to status codes. Error payloads stay
// generic; no key material or internals leak through them.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrKeyFormat):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream failure")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// maskForbidden hides a file's existence from callers without access: read
// paths answer 404 whether the file is missing or merely off-limits.
func maskForbidden(err error) error {
	if errors.Is(err, common.ErrForbidden) {
		return common.ErrNotFound
	}
	return err
}

// --- auth ---

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Error(r.Context(), "registration failed", "error", err)
		serviceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "registered", "username", user.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "username": user.Username})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// --- kms ---

func (s *HTTPServer) handleKMSKey(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	pub, err := s.kms.GetOrCreatePublicKey(r.Context(), p.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": pub})
}

func (s *HTTPServer) handleKMSDecrypt(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		WrappedKey string `json:"wrapped_key"`
		KeyOwner   string `json:"key_owner"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	key, err := s.kms.Decrypt(r.Context(), p.UserID, req.WrappedKey, req.KeyOwner)
	if err != nil {
		// The caller is authenticated; a KMS refusal is a permission
		// problem, not a session problem.
		if errors.Is(err, common.ErrUnauthorized) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

// --- files ---

func (s *HTTPServer) handleFileList(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	records, err := s.files.ListOwn(r.Context(), p)
	if err != nil {
		serviceError(w, err)
		return
	}

	list := make([]fileDTO, 0, len(records))
	for _, f := range records {
		list = append(list, toFileDTO(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": list})
}

func (s *HTTPServer) handleFileUpload(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		FileName   string `json:"file_name"`
		Ciphertext string `json:"ciphertext"`
		WrappedKey string `json:"wrapped_key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := s.files.Create(r.Context(), p, req.FileName, req.Ciphertext, req.WrappedKey)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileDTO(record))
}

func (s *HTTPServer) handleFileGet(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	record, level, err := s.files.Get(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, maskForbidden(err))
		return
	}

	dto := toFileDTO(record)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         dto.ID,
		"file_name":  dto.FileName,
		"owner":      dto.Owner,
		"created_at": dto.CreatedAt,
		"permission": string(level),
	})
}

func (s *HTTPServer) handleFileDelete(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	if err := s.files.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		serviceError(w, maskForbidden(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleFileDownload(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	res, err := s.files.Download(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, maskForbidden(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"file_name":   res.FileName,
		"owner":       res.OwnerUsername,
		"ciphertext":  res.CiphertextB64,
		"wrapped_key": res.WrappedKey,
	})
}

func (s *HTTPServer) handleFilePermission(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	level, err := s.shares.PermissionFor(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, maskForbidden(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"permission": string(level)})
}

// --- shares ---

func (s *HTTPServer) handleShareGrant(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		Username   string `json:"username"`
		Permission string `json:"permission"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := s.shares.Grant(r.Context(), p, r.PathValue("id"), req.Username, common.Permission(req.Permission))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toShareDTO(grant))
}

func (s *HTTPServer) handleShareList(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	grants, err := s.shares.ListByFile(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}

	list := make([]shareDTO, 0, len(grants))
	for _, g := range grants {
		list = append(list, toShareDTO(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shares": list})
}

func (s *HTTPServer) handleShareUpdate(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var req struct {
		Permission string `json:"permission"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := s.shares.Update(r.Context(), p, r.PathValue("id"), r.PathValue("shareID"), common.Permission(req.Permission))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toShareDTO(grant))
}

func (s *HTTPServer) handleShareRevoke(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	if err := s.shares.Revoke(r.Context(), p, r.PathValue("id"), r.PathValue("shareID")); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSharedWithMe(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	shared, err := s.files.SharedWithMe(r.Context(), p)
	if err != nil {
		serviceError(w, err)
		return
	}

	type sharedFileDTO struct {
		fileDTO
		ShareID    string `json:"share_id"`
		Permission string `json:"permission"`
	}

	list := make([]sharedFileDTO, 0, len(shared))
	for _, sf := range shared {
		list = append(list, sharedFileDTO{
			fileDTO:    toFileDTO(sf.File),
			ShareID:    sf.ShareID,
			Permission: string(sf.Permission),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": list})
}

// --- links ---

func (s *HTTPServer) handleLinkGenerate(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	link, url, err := s.links.Generate(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, maskForbidden(err))
		return
	}

	resp := map[string]any{"token": link.Token, "url": url}
	if link.ExpiresAt != nil {
		resp["expires_at"] = link.ExpiresAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *HTTPServer) handleLinkVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	fileID, err := s.links.Resolve(r.Context(), req.Token)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file_id": fileID})
}
