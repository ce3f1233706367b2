package entity

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/xxxsen/dtxorg/internal/prompt"
	"github.com/xxxsen/dtxorg/internal/report"
)

// scriptedChooser answers prompts from a fixed list and records every request.
type scriptedChooser struct {
	choices  []prompt.Choice
	requests []prompt.Request
}

func (s *scriptedChooser) Choose(req prompt.Request) (prompt.Choice, error) {
	s.requests = append(s.requests, req)
	if len(s.choices) == 0 {
		return prompt.Keep(), nil
	}
	c := s.choices[0]
	s.choices = s.choices[1:]
	return c, nil
}

func newTestEnv(chooser prompt.Chooser) (Env, *report.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := report.New(zap.New(core))
	return Env{Log: log, Chooser: chooser}, log, logs
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return string(out)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
