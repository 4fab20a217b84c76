package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsCurrentMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Scanning fw.bin...")
	s.draw(0)
	s.SetMessage(scanMessage("fw.bin", 1536, 4<<20, 1535))
	s.draw(1)

	out := buf.String()
	if !strings.Contains(out, "Scanning fw.bin...") {
		t.Errorf("first frame missing initial message: %q", out)
	}
	if !strings.Contains(out, "1.5 KiB / 4.0 MiB · 1535 windows") {
		t.Errorf("second frame missing progress: %q", out)
	}
}

func TestSpinnerStopClearsLine(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Rendering png...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Rendering png...") {
		t.Fatalf("spinner never drew: %q", out)
	}
	blank := "\r" + strings.Repeat(" ", len("Rendering png...")+2) + "\r"
	if !strings.HasSuffix(out, blank) {
		t.Errorf("Stop should end by blanking the widest line, got %q", out[max(0, len(out)-40):])
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinner(ctx, &buf, "Scanning...")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context was cancelled")
	}
	s.Stop()
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{64 << 20, "64.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
