package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fileLogger 写入临时文件的 json 日志器，便于断言输出字段
func fileLogger(t *testing.T, level string) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	l := New(Config{Level: level, Format: "json", Output: path, Component: "test"})
	return l, path
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var lines []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestDBQueryLog(t *testing.T) {
	l, path := fileLogger(t, "debug")

	l.DBQueryLog("aggregate", "reviews", 3*time.Millisecond, nil)
	l.DBQueryLog("aggregate", "tours", time.Millisecond, errors.New("connection reset"))

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}

	ok := lines[0]
	if ok["level"] != "DEBUG" || ok["operation"] != "aggregate" || ok["collection"] != "reviews" {
		t.Errorf("success line = %v", ok)
	}
	if _, has := ok["error"]; has {
		t.Error("success line carries error field")
	}

	failed := lines[1]
	if failed["level"] != "ERROR" || failed["error"] != "connection reset" {
		t.Errorf("failure line = %v", failed)
	}
}

func TestDBQueryLogBelowLevel(t *testing.T) {
	l, path := fileLogger(t, "info")

	l.DBQueryLog("find", "tours", time.Millisecond, nil)

	if lines := readLines(t, path); len(lines) != 0 {
		t.Errorf("debug query logged at info level: %v", lines)
	}
}

func TestHTTPRequestLog(t *testing.T) {
	l, path := fileLogger(t, "info")

	l.HTTPRequestLog("GET", "/api/v1/tours", 200, 12*time.Millisecond, "10.0.0.1")

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1", len(lines))
	}
	got := lines[0]
	if got["method"] != "GET" || got["path"] != "/api/v1/tours" || got["status"] != float64(200) {
		t.Errorf("request line = %v", got)
	}
}
