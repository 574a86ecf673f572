package remote

import (
	"testing"
	"time"
)

func TestJobTransitions(t *testing.T) {
	t.Run("happy path progression", func(t *testing.T) {
		j := newJob("job-1", "doc.zip", time.Minute)
		for _, next := range []State{StateUploaded, StateStarted, StatePolling, StateCompleted} {
			if err := j.advance(next); err != nil {
				t.Fatalf("advance to %s: %v", next, err)
			}
		}
		if !j.State.Terminal() {
			t.Error("completed job not terminal")
		}
	})

	t.Run("illegal transitions rejected", func(t *testing.T) {
		j := newJob("job-1", "doc.zip", time.Minute)
		if err := j.advance(StateCompleted); err == nil {
			t.Error("created -> completed allowed")
		}
		if j.State != StateCreated {
			t.Errorf("failed transition mutated state to %s", j.State)
		}
	})

	t.Run("terminal states are final", func(t *testing.T) {
		for _, term := range []State{StateCompleted, StateFailed, StateTimedOut} {
			j := newJob("job-1", "doc.zip", time.Minute)
			j.State = StatePolling
			if err := j.advance(term); err != nil {
				t.Fatalf("polling -> %s: %v", term, err)
			}
			if err := j.advance(StatePolling); err == nil {
				t.Errorf("%s allowed a further transition", term)
			}
		}
	})

	t.Run("deadline derives from timeout", func(t *testing.T) {
		j := newJob("job-1", "doc.zip", 5*time.Second)
		if got := j.Deadline.Sub(j.CreatedAt); got != 5*time.Second {
			t.Errorf("deadline offset = %s, want 5s", got)
		}
	})
}

func TestExtractText(t *testing.T) {
	t.Run("first text entry wins", func(t *testing.T) {
		archive, err := packPayload("result.md", []byte("extracted"))
		if err != nil {
			t.Fatalf("packPayload: %v", err)
		}
		text, err := extractText(archive)
		if err != nil {
			t.Fatalf("extractText: %v", err)
		}
		if text != "extracted" {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("no text entry", func(t *testing.T) {
		archive, err := packPayload("page.png", []byte{0x89})
		if err != nil {
			t.Fatalf("packPayload: %v", err)
		}
		if _, err := extractText(archive); err == nil {
			t.Error("expected error for archive without text entries")
		}
	})

	t.Run("garbage bytes", func(t *testing.T) {
		if _, err := extractText([]byte("not a zip")); err == nil {
			t.Error("expected error for unreadable archive")
		}
	})

	t.Run("invalid utf-8 rejected", func(t *testing.T) {
		archive, err := packPayload("out.txt", []byte{0xff, 0xfe, 0xfd})
		if err != nil {
			t.Fatalf("packPayload: %v", err)
		}
		if _, err := extractText(archive); err == nil {
			t.Error("expected error for non-UTF-8 text entry")
		}
	})
}
