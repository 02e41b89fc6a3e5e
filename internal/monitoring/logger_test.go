package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, format)
	})
	Logf("Trial: run finished in %fs", 1.5)

	if len(got) != 1 || !strings.HasPrefix(got[0], "Trial:") {
		t.Errorf("custom logger captured %v, want one Trial-prefixed message", got)
	}

	// nil installs a no-op sink.
	SetLogger(nil)
	Logf("should be dropped")
	if len(got) != 1 {
		t.Errorf("no-op logger still captured messages: %v", got)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}
