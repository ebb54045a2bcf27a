// Package jsonstore provides the flat-file persistence layer shared by the
// identity and records stores. Each store owns exactly one JSON document that
// is read in full at construction and rewritten in full on every mutation.
// Documents are pretty-printed UTF-8 with non-ASCII characters preserved
// unescaped, so the files stay diffable and human-readable.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
)

// Load reads the JSON document at path into v. A missing file is not an
// error: v is left untouched so the caller starts from its zero state.
func Load(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Save rewrites the JSON document at path from v, creating the parent
// directory if needed. There is no partial-write recovery: if the write
// fails mid-operation the caller's in-memory state and the file may
// diverge, a documented limitation of the flat-file stores.
func Save(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// FileStatus describes one backing file for the storage health endpoint.
type FileStatus struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Size     int64  `json:"size"`
	Modified string `json:"modified,omitempty"`
}

func statusFor(path string) FileStatus {
	st := FileStatus{Path: filepath.Base(path)}
	info, err := os.Stat(path)
	if err != nil {
		return st
	}
	st.Exists = true
	st.Size = info.Size()
	st.Modified = info.ModTime().UTC().Format(time.RFC3339)
	return st
}

// HealthHandler returns a handler for the storage health check endpoint.
// It reports whether the data directory is writable and the state of each
// backing file.
func HealthHandler(dataDir string, files ...string) echo.HandlerFunc {
	return func(c echo.Context) error {
		statuses := make([]FileStatus, 0, len(files))
		for _, f := range files {
			statuses = append(statuses, statusFor(filepath.Join(dataDir, f)))
		}

		// Probe writability with a throwaway file.
		probe := filepath.Join(dataDir, ".health")
		writable := os.WriteFile(probe, []byte("ok"), 0o644) == nil
		if writable {
			os.Remove(probe)
		}

		body := map[string]interface{}{
			"status":   "healthy",
			"data_dir": dataDir,
			"writable": writable,
			"files":    statuses,
		}
		if !writable {
			body["status"] = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}
