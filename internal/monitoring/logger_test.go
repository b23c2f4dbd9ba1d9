package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("publishing frame %d", 1)

	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger rather than panicking.
	called = false
	SetLogger(nil)
	Logf("dropped frame")
	if called {
		t.Error("no-op logger should not have triggered the callback")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("loaded %d submaps", 3)
}
