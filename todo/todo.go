package todo

import "time"

// Todo is a single task record. ID is assigned by the store and never changes.
type Todo struct {
	ID        string    `json:"id" msgpack:"id"`
	Title     string    `json:"title" msgpack:"title"`
	Completed bool      `json:"completed" msgpack:"completed"`
	CreatedAt time.Time `json:"createdAt" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// normalize puts timestamps in UTC so values decoded from the cache compare
// equal to values read from the store.
func (t *Todo) normalize() {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
}
