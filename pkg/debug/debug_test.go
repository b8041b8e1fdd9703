package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogRespectsEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(false) })

	Log("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("disabled logger wrote %q", buf.String())
	}

	SetEnabled(true)
	Log("shown %d", 2)
	LogTiming("layout", 3*time.Millisecond)
	done := LogEnterExit("render")
	done()

	out := buf.String()
	for _, want := range []string{"[DTV_DEBUG]", "shown 2", "layout took 3ms", "-> render", "<- render"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
