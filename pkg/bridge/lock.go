package bridge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ServiceLock ensures only one sink serves a given service name per host.
type ServiceLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file for service under dir
func LockPath(dir, service string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("autoframe-%s.lock", service))
}

// AcquireServiceLock takes the lock for service, failing with ErrLocked when
// another sink holds it.
func AcquireServiceLock(dir, service string) (*ServiceLock, error) {
	path := LockPath(dir, service)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, service)
	}
	return &ServiceLock{path: path, lock: l}, nil
}

// Path returns the lock file path
func (l *ServiceLock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file
func (l *ServiceLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return err
	}
	_ = os.Remove(l.path)
	return nil
}
