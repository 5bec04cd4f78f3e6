package cart

import "sync"

// ownerLocks сериализует read-modify-write циклы по ключу владельца.
// Корзины независимы, поэтому блокировка никогда не пересекает владельцев.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// Acquire блокирует ключ владельца и возвращает функцию освобождения.
// Запись о ключе удаляется, когда последний держатель отпускает блокировку.
func (l *ownerLocks) Acquire(key string) func() {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &ownerLock{}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
