// Package lockfile не даёт запустить второй экземпляр бота.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another instance is running")

type Lock struct {
	fl *flock.Flock
}

// Acquire берёт эксклюзивную блокировку на path и пишет туда pid. После падения
// процесса блокировку снимает ОС, старый файл запуску не мешает.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("write pid: %w", err)
	}
	return &Lock{fl: fl}, nil
}

// Release снимает блокировку и удаляет файл.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(l.fl.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
