package httpserver

import (
	"errors"
	"net/http"

	"github.com/lifeledger/lifeledger/internal/common"
	"github.com/lifeledger/lifeledger/internal/server/token"
)

// requireSession resolves the caller's session, answering 401 itself when
// there is none. Expired identity tokens are refreshed transparently by the
// resolver before this returns.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) *token.Claims {
	claims, _ := s.resolver.Resolve(w, r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil
	}
	return claims
}

func (s *Server) handleUploadGrant(w http.ResponseWriter, r *http.Request) {
	claims := s.requireSession(w, r)
	if claims == nil {
		return
	}

	var body struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		FileSize    int64  `json:"fileSize"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	grant, err := s.uploads.CreateGrant(r.Context(), claims.Subject, body.Filename, body.ContentType, body.FileSize)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error(r.Context(), "upload grant failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	writeJSON(w, http.StatusOK, grant)
}

func (s *Server) handleUploadConfirm(w http.ResponseWriter, r *http.Request) {
	claims := s.requireSession(w, r)
	if claims == nil {
		return
	}

	var body struct {
		S3Key       string `json:"s3Key"`
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.uploads.Confirm(r.Context(), claims.Subject, body.S3Key, body.Filename, body.ContentType); err != nil {
		if errors.Is(err, common.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error(r.Context(), "upload confirmation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to confirm upload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleUploadList(w http.ResponseWriter, r *http.Request) {
	claims := s.requireSession(w, r)
	if claims == nil {
		return
	}

	views, err := s.uploads.List(r.Context(), claims.Subject)
	if err != nil {
		s.logger.Error(r.Context(), "loading uploads failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load uploads")
		return
	}

	writeJSON(w, http.StatusOK, views)
}
