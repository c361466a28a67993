package ptr

import "testing"

func TestTo(t *testing.T) {
	s := "sonarr-"
	p := To(s)
	if p == nil {
		t.Fatal("Expected non-nil pointer")
	}
	if *p != s {
		t.Errorf("Expected %q, got %q", s, *p)
	}
	if p == &s {
		t.Error("Expected different address")
	}
}

func TestStringAndBool(t *testing.T) {
	if got := *String(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
	if got := *Bool(true); !got {
		t.Error("Expected true")
	}
}

func TestDeref(t *testing.T) {
	if got := Deref[string](nil, "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := Deref(Bool(false), true); got {
		t.Error("Expected false from pointer, got fallback")
	}
}
