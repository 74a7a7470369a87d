package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "info", "json")
	l.Info("slideshow started", "pages", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	if entry["msg"] != "slideshow started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["pages"] != float64(2) {
		t.Errorf("pages = %v", entry["pages"])
	}
}

func TestSetup_Level(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "warn", "text")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("text output = %q", out)
	}
}
