package ids

import "testing"

func TestNewIsMonotonicAndValid(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		if !Valid(next) {
			t.Fatalf("generated id %q is not valid", next)
		}
		prev = next
	}
	if Valid("not-a-ulid") {
		t.Fatal("expected garbage to be rejected")
	}
}
