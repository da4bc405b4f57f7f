package assert

import "testing"

func TestIsTrue(t *testing.T) {
	if !IsTrue(true, "nunca") {
		t.Fatal("IsTrue(true) = false")
	}

	defer func() {
		r := recover()
		if Enabled {
			v, ok := r.(*Violation)
			if !ok {
				t.Fatalf("recover() = %v, want *Violation", r)
			}
			if v.Msg != "slot 3 de (1, 2, 3)" {
				t.Errorf("Msg = %q", v.Msg)
			}
			return
		}
		if r != nil {
			t.Fatalf("panic in release build: %v", r)
		}
	}()

	got := IsTrue(false, "slot %d de %s", 3, "(1, 2, 3)")
	if got {
		t.Error("IsTrue(false) = true")
	}
}
