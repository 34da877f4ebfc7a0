// Package httpapi exposes the HTTP/JSON API: auth, file upload/download,
// share management, share links, and the KMS key endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/mayankramina/secure-file-share/internal/logging"
	"github.com/mayankramina/secure-file-share/internal/server/kms"
	"github.com/mayankramina/secure-file-share/internal/server/services"
)

type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	files     *services.FileService
	shares    *services.ShareService
	links     *services.LinkService
	kms       *kms.Service
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, fs *services.FileService, ss *services.ShareService, ls *services.LinkService, ks *kms.Service, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		files:     fs,
		shares:    ss,
		links:     ls,
		kms:       ks,
		jwtSecret: []byte(secretKey),
	}
}

// Handler builds the route table. Split out from Run so tests can drive it
// through httptest.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/kms/key", s.withAuth(s.handleKMSKey))
	mux.HandleFunc("POST /api/kms/decrypt", s.withAuth(s.handleKMSDecrypt))

	mux.HandleFunc("GET /api/files/list", s.withAuth(s.handleFileList))
	mux.HandleFunc("POST /api/files/upload", s.withAuth(s.handleFileUpload))
	mux.HandleFunc("GET /api/files/{id}", s.withAuth(s.handleFileGet))
	mux.HandleFunc("DELETE /api/files/{id}", s.withAuth(s.handleFileDelete))
	mux.HandleFunc("GET /api/files/{id}/download", s.withAuth(s.handleFileDownload))
	mux.HandleFunc("GET /api/files/{id}/permission", s.withAuth(s.handleFilePermission))

	mux.HandleFunc("POST /api/files/{id}/shares", s.withAuth(s.handleShareGrant))
	mux.HandleFunc("GET /api/files/{id}/shares", s.withAuth(s.handleShareList))
	mux.HandleFunc("PATCH /api/files/{id}/shares/{shareID}", s.withAuth(s.handleShareUpdate))
	mux.HandleFunc("DELETE /api/files/{id}/shares/{shareID}", s.withAuth(s.handleShareRevoke))
	mux.HandleFunc("GET /api/shares/me", s.withAuth(s.handleSharedWithMe))

	mux.HandleFunc("POST /api/files/{id}/links/generate", s.withAuth(s.handleLinkGenerate))
	mux.HandleFunc("POST /api/files/links/verify", s.handleLinkVerify)

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
