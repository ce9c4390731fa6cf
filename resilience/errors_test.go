package resilience

import "testing"

func TestErrTimeout(t *testing.T) {
	if ErrTimeout == nil {
		t.Fatal("ErrTimeout is nil")
	}
	if ErrTimeout.Error() == "" {
		t.Error("ErrTimeout has empty message")
	}
}
