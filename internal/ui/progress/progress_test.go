package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBarModel_Line(t *testing.T) {
	t.Parallel()

	m := newBarModel(11, 20, nil)

	next, _ := m.Update(revisionMsg{done: 1, rev: 11, skipped: true})
	next, _ = next.(barModel).Update(revisionMsg{done: 4, rev: 15})
	m = next.(barModel)

	line := m.line(8 * time.Second)
	for _, want := range []string{" 40%", "r15", "4/10", "(1 skipped)", "eta 12s"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestBarModel_NoEtaWhenIdleOrDone(t *testing.T) {
	t.Parallel()

	m := newBarModel(1, 5, nil)
	if strings.Contains(m.line(time.Minute), "eta") {
		t.Error("eta shown before any revision was handled")
	}
	m.done = 5
	if line := m.line(time.Minute); strings.Contains(line, "eta") || !strings.Contains(line, "100%") {
		t.Errorf("finished line = %q", line)
	}
}

func TestRevisions_IdleIsNoop(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewRevisions(&buf)

	// Hooks before Begin and around an empty interval must not draw.
	r.Skipped(3)
	r.Exporting(4)
	r.Begin(10, 9)
	r.Exporting(10)
	r.Finished()

	if r.program != nil {
		t.Error("empty interval started a bar")
	}
	if buf.Len() != 0 {
		t.Errorf("idle bar wrote %q", buf.String())
	}
}

func TestSpinner_StopBeforeStart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSpinner(&buf, "Indexing")
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("idle spinner wrote %q", buf.String())
	}
}
