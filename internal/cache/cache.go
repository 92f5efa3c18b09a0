// cache — процессный TTL-кэш результатов агрегации.
//
// Контракт:
//   - Set безусловно перезаписывает запись целиком;
//   - Get отдаёт значение только пока возраст записи не превысил TTL,
//     протухшую запись удаляет на месте чтения (ленивая очистка,
//     фонового свипера нет);
//   - конкурирующие промахи по одному ключу могут посчитать значение
//     дважды — записи являются идемпотентными снимками, гонка безобидна.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	storedAt time.Time
	value    any
}

// Cache — key -> (время записи, значение) с проверкой свежести на чтении.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry

	// now подменяется в тестах.
	now func() time.Time
}

// New создаёт кэш с заданным TTL. ttl <= 0 означает 300s.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}

	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Set сохраняет значение под ключом, затирая прежнюю запись.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{storedAt: c.now(), value: value}
}

// Get возвращает значение и признак наличия свежей записи.
// Протухшая запись удаляется, чтобы карта не росла без свипера.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

// Len — количество записей (включая ещё не вычищенные протухшие).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
