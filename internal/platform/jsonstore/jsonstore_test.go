package jsonstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type doc struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

func TestLoad_MissingFileLeavesValueUntouched(t *testing.T) {
	v := doc{Name: "zero state"}
	if err := Load(filepath.Join(t.TempDir(), "absent.json"), &v); err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if v.Name != "zero state" {
		t.Errorf("value modified by missing file: %+v", v)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	var v doc
	if err := Load(path, &v); err == nil {
		t.Error("expected parse error for malformed file")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "doc.json")
	want := doc{Name: "Amélie", Tags: []string{"a", "b"}, Count: 3}

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got doc
	if err := Load(path, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("round trip differs: want %+v, got %+v", want, got)
	}
}

func TestSave_PrettyPrintedUnescaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	Save(path, doc{Name: "Côté <script>"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "\n  \"name\"") {
		t.Error("expected two-space indentation")
	}
	if !strings.Contains(s, "Côté") || strings.Contains(s, `\u00f4`) {
		t.Error("non-ASCII must be stored unescaped")
	}
	if !strings.Contains(s, `<script>`) {
		t.Error("HTML escaping must be disabled")
	}
}

func TestHealthHandler(t *testing.T) {
	dir := t.TempDir()
	Save(filepath.Join(dir, "patients.json"), []doc{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/storage", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := HealthHandler(dir, "patients.json", "clinical_records.json")
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status   string       `json:"status"`
		Writable bool         `json:"writable"`
		Files    []FileStatus `json:"files"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "healthy" || !resp.Writable {
		t.Errorf("unexpected health report: %+v", resp)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 file statuses, got %d", len(resp.Files))
	}
	if !resp.Files[0].Exists || resp.Files[1].Exists {
		t.Errorf("file existence misreported: %+v", resp.Files)
	}

	// The writability probe must not linger.
	if _, err := os.Stat(filepath.Join(dir, ".health")); !os.IsNotExist(err) {
		t.Error("probe file left behind")
	}
}
