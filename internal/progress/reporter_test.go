package progress

import (
	"bytes"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Task: "Importing manuals", Out: &buf}
	r.Start(2)
	r.Update(1, "a.json")
	r.Update(2, "b.json")
	r.Finish()

	want := "Importing manuals: 2 files\n[1/2] a.json\n[2/2] b.json\nImporting manuals: done\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}
