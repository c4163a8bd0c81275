package caf

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewSlogLogger(&stdout, &stderr)

	l.Info("Opened file", "reader")
	assert.Regexp(t, `^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] \[reader\] Opened file\n$`, stdout.String())

	l.Error("entry 3 rejected")
	assert.Contains(t, stderr.String(), `"level":"ERROR"`)
	assert.Contains(t, stderr.String(), `"msg":"entry 3 rejected"`)
}

func TestHandlerRendersLoggerAttrs(t *testing.T) {
	var out bytes.Buffer
	l := slog.New(NewHandler(&out, nil)).With("module", "writer")

	l.Info("Closing file", "entries", 3)
	assert.Regexp(t, `^\[[0-9/: ]+\] \[writer\] \[3\] Closing file\n$`, out.String())

	out.Reset()
	l.WithGroup("g").Info("Opened file")
	assert.Regexp(t, `\] \[writer\] Opened file\n$`, out.String())
}
