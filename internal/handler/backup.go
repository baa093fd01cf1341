package handler

import (
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/minikapp/minik/internal/backup"
	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": h.manager.Enabled(),
		"status":  h.manager.Status(),
	})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.backups.List(queryInt(r, "limit", 30))
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if records == nil {
		records = []model.BackupRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, http.StatusConflict, "backups are not configured")
		return
	}

	record, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Download streams one encrypted snapshot. The file stays encrypted;
// restoring requires the instance passphrase.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, http.StatusConflict, "backups are not configured")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	records, err := h.backups.List(1000)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	var record *model.BackupRecord
	for i := range records {
		if records[i].ID == id {
			record = &records[i]
			break
		}
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}

	body, err := h.manager.Download(r.Context(), record)
	if err != nil {
		h.logger.Error("download backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to download backup")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(record.ObjectKey)+`"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream backup", "error", err)
	}
}
