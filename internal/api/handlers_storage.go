package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

func (h *handler) getStorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.core.StorageInfo(r.Context())
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	dataDir := filepath.Dir(info.DBPath)
	dbName := filepath.Base(info.DBPath)
	available, err := listDBFiles(dataDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			writeError(w, r, http.StatusInternalServerError, fmt.Errorf("list storage files: %w", err).Error())
			return
		}
		available = []string{}
	}
	if !containsString(available, dbName) {
		available = append([]string{dbName}, available...)
	}

	writeJSON(w, http.StatusOK, storageInfoResponse{
		DBName:      dbName,
		DataDir:     dataDir,
		Available:   available,
		StorageInfo: info,
	})
}

func (h *handler) downloadBackup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.core.Backup(r.Context(), &buf); err != nil {
		h.logger.Error("database backup failed", "db_path", h.core.DBPath(), "err", err)
		writeErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backupFileName(h.core.DBPath(), time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// backupFileName turns "reportdesk.db" into "reportdesk-backup-20261019.db".
func backupFileName(dbPath string, now time.Time) string {
	base := filepath.Base(dbPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "reportdesk"
	}
	return fmt.Sprintf("%s-backup-%s.db", stem, now.Format("20060102"))
}

func listDBFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), ".db") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func containsString(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
