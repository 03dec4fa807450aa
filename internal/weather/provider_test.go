package weather

import "testing"

func TestLifecycleHappyPath(t *testing.T) {
	var l Lifecycle
	if err := l.RequireSetUp(); err == nil {
		t.Fatal("expected RequireSetUp to fail before MarkSetUp")
	}
	if err := l.MarkSetUp(); err != nil {
		t.Fatalf("MarkSetUp: %v", err)
	}
	if err := l.RequireSetUp(); err != nil {
		t.Fatalf("RequireSetUp after MarkSetUp: %v", err)
	}
	if err := l.MarkTornDown(); err != nil {
		t.Fatalf("MarkTornDown: %v", err)
	}
	if err := l.RequireSetUp(); err == nil {
		t.Fatal("expected RequireSetUp to fail after teardown")
	}
}

func TestLifecycleSetupIsIdempotent(t *testing.T) {
	var l Lifecycle
	if err := l.MarkSetUp(); err != nil {
		t.Fatalf("first MarkSetUp: %v", err)
	}
	if err := l.MarkSetUp(); err != nil {
		t.Fatalf("second MarkSetUp should be a no-op, got: %v", err)
	}
}

func TestLifecycleTeardownIsIdempotent(t *testing.T) {
	var l Lifecycle
	l.MarkSetUp()
	if err := l.MarkTornDown(); err != nil {
		t.Fatalf("first MarkTornDown: %v", err)
	}
	if err := l.MarkTornDown(); err != nil {
		t.Fatalf("second MarkTornDown should be a no-op, got: %v", err)
	}
}

func TestLifecycleRejectsTeardownBeforeSetup(t *testing.T) {
	var l Lifecycle
	if err := l.MarkTornDown(); err == nil {
		t.Fatal("expected an error tearing down a fresh provider")
	}
}
