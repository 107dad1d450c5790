package bridgeserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultStorage  = 30
	defaultTransfer = 10

	maxJSONBody = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
}

// storeError maps metadata and blob failures to a status.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBucketNotFound):
		writeError(w, http.StatusNotFound, "bucket not found")
	case errors.Is(err, ErrFileNotFound), errors.Is(err, ErrBlobNotFound):
		writeError(w, http.StatusNotFound, "file not found")
	default:
		s.log.Error("store failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.meta.ListBuckets(userFromContext(r.Context()))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) createBucket(w http.ResponseWriter, r *http.Request) {
	var info bridge.BucketInfo
	if err := decodeJSON(r, &info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid bucket payload")
		return
	}
	info.Name = strings.TrimSpace(info.Name)
	if info.Name == "" {
		writeError(w, http.StatusBadRequest, "bucket name is required")
		return
	}
	if info.Storage <= 0 {
		info.Storage = defaultStorage
	}
	if info.Transfer <= 0 {
		info.Transfer = defaultTransfer
	}

	b, err := s.meta.CreateBucket(userFromContext(r.Context()), info)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.log.Info("bucket created", zap.String("id", b.ID), zap.String("name", b.Name))
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) deleteBucket(w http.ResponseWriter, r *http.Request) {
	bucketID := chi.URLParam(r, "bucketID")
	fileIDs, err := s.meta.DeleteBucket(userFromContext(r.Context()), bucketID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	for _, id := range fileIDs {
		if err := s.blobs.Delete(r.Context(), id); err != nil {
			s.log.Warn("orphaned blob", zap.String("file", id), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.meta.ListFiles(userFromContext(r.Context()), chi.URLParam(r, "bucketID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

type tokenRequest struct {
	Operation string `json:"operation"`
}

func (s *Server) createToken(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	bucketID := chi.URLParam(r, "bucketID")

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid token payload")
		return
	}
	op, err := bridge.ParseOperation(req.Operation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.meta.GetBucket(user, bucketID); err != nil {
		s.storeError(w, err)
		return
	}

	tok, err := s.tokens.Issue(user, bucketID, op)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tok)
}

// authorizeTransfer checks the bucket and the x-token header, writing the
// error response itself when it returns false.
func (s *Server) authorizeTransfer(w http.ResponseWriter, r *http.Request, op bridge.Operation) (user, bucketID string, ok bool) {
	user = userFromContext(r.Context())
	bucketID = chi.URLParam(r, "bucketID")

	if _, err := s.meta.GetBucket(user, bucketID); err != nil {
		s.storeError(w, err)
		return "", "", false
	}
	if err := s.tokens.Verify(r.Header.Get(bridge.HeaderToken), user, bucketID, op); err != nil {
		s.log.Debug("token rejected", zap.String("bucket", bucketID), zap.Error(err))
		writeError(w, http.StatusForbidden, err.Error())
		return "", "", false
	}
	return user, bucketID, true
}

func (s *Server) storeFile(w http.ResponseWriter, r *http.Request) {
	user, bucketID, ok := s.authorizeTransfer(w, r, bridge.OperationPush)
	if !ok {
		return
	}

	filename, err := url.PathUnescape(r.Header.Get(bridge.HeaderFilename))
	if err != nil || strings.TrimSpace(filename) == "" {
		writeError(w, http.StatusBadRequest, "x-filename header is required")
		return
	}
	mimetype := r.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	// Spool to disk so the size is known and blob stores get a seekable body.
	spool, err := os.CreateTemp("", "storjcli-bridge-*")
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		s.storeError(w, err)
		return
	}

	id := s.meta.NewFileID()
	if err := s.blobs.Put(r.Context(), id, spool, size); err != nil {
		s.storeError(w, err)
		return
	}
	f, err := s.meta.PutFile(user, bridge.File{
		ID:       id,
		Bucket:   bucketID,
		Filename: filename,
		Mimetype: mimetype,
		Size:     size,
	})
	if err != nil {
		_ = s.blobs.Delete(r.Context(), id)
		s.storeError(w, err)
		return
	}
	s.log.Info("file stored", zap.String("bucket", bucketID), zap.String("id", id), zap.Int64("size", size))
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	user, bucketID, ok := s.authorizeTransfer(w, r, bridge.OperationPull)
	if !ok {
		return
	}

	f, err := s.meta.GetFile(user, bucketID, chi.URLParam(r, "fileID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	body, err := s.blobs.Get(r.Context(), f.ID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.log.Warn("stream aborted", zap.String("file", f.ID), zap.Error(err))
	}
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	bucketID := chi.URLParam(r, "bucketID")
	fileID := chi.URLParam(r, "fileID")

	if err := s.meta.DeleteFile(user, bucketID, fileID); err != nil {
		s.storeError(w, err)
		return
	}
	if err := s.blobs.Delete(r.Context(), fileID); err != nil {
		s.log.Warn("orphaned blob", zap.String("file", fileID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
