package bus

import "testing"

func TestNewMessage_Defaults(t *testing.T) {
	m := NewMessage("k", 42)
	if m.Kind() != "k" {
		t.Errorf("Kind() = %q", m.Kind())
	}
	if m.Payload() != 42 {
		t.Errorf("Payload() = %v", m.Payload())
	}
	if m.Affinity() != AffinityUI {
		t.Errorf("default affinity = %v, want AffinityUI", m.Affinity())
	}
	if !m.Scope().IsZero() {
		t.Errorf("default scope = %v, want NoScope", m.Scope())
	}
}

func TestSignal(t *testing.T) {
	ss := newScopeStore()
	scope := ss.create()

	s := Signal("refresh", WithAffinity(AffinityWorker), ToScope(scope))
	if s.Payload() != nil {
		t.Errorf("signal payload = %v, want nil", s.Payload())
	}
	if s.Affinity() != AffinityWorker {
		t.Errorf("affinity = %v, want AffinityWorker", s.Affinity())
	}
	if s.Scope() != scope {
		t.Errorf("scope = %v, want %v", s.Scope(), scope)
	}

	// Signals are plain values: reuse is copy, not aliasing.
	again := s
	if again != s {
		t.Error("signal copy differs from original")
	}
}

func TestAffinity_String(t *testing.T) {
	tests := []struct {
		a    Affinity
		want string
	}{
		{AffinityUI, "ui"},
		{AffinityWorker, "worker"},
		{Affinity(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("Affinity(%d).String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}
