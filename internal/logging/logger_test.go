package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerTextOutputIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{component: "buffer", level: DEBUG, output: &buf, jsonMode: false}
	l.Info("page fetched", "page_id", 7)

	out := buf.String()
	if !strings.Contains(out, "[INFO ]") {
		t.Fatalf("output = %q; want it to contain level tag", out)
	}
	if !strings.Contains(out, "page_id=7") {
		t.Fatalf("output = %q; want it to contain page_id=7", out)
	}
}

func TestLoggerRespectsMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{component: "buffer", level: WARN, output: &buf, jsonMode: false}
	l.Debug("should not appear")
	l.Info("should not appear either")

	if buf.Len() != 0 {
		t.Fatalf("buf = %q; want empty output below WARN threshold", buf.String())
	}
}

func TestLoggerJSONMode(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{component: "buffer", level: DEBUG, output: &buf, jsonMode: true}
	l.Error("disk write failed", "page_id", 3)

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Fatalf("output = %q; want JSON with level field", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DEBUG,
		"INFO":  INFO,
		"warn":  WARN,
		"ERROR": ERROR,
		"huh":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestWithContextMergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{component: "buffer", level: DEBUG, output: &buf, jsonMode: false}
	ctx := l.With("page_id", 9)
	ctx.Info("fetched")

	if !strings.Contains(buf.String(), "page_id=9") {
		t.Fatalf("output = %q; want page_id=9 from context", buf.String())
	}
}
