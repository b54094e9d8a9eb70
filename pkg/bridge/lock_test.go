package bridge

import (
	"errors"
	"os"
	"testing"
)

func TestServiceLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireServiceLock(dir, "autoframe")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := AcquireServiceLock(dir, "autoframe"); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire err = %v, want ErrLocked", err)
	}

	other, err := AcquireServiceLock(dir, "studio-b")
	if err != nil {
		t.Fatalf("distinct service should lock independently: %v", err)
	}
	other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(first.Path()); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed, stat err = %v", err)
	}

	again, err := AcquireServiceLock(dir, "autoframe")
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	again.Release()
}
