package content

// Store exposes canned content to the resolver and HTTP handlers.
type Store interface {
	Table() *Table
	Topics() []Topic
	QuickTopics() []Topic
	FindByID(id string) (Topic, bool)
}

// MemoryStore implements Store over a validated, immutable Table.
type MemoryStore struct {
	table *Table
}

// NewMemoryStore returns a MemoryStore over table. The table must already be validated.
func NewMemoryStore(table *Table) *MemoryStore {
	return &MemoryStore{table: table}
}

// Table returns the underlying table; callers must not mutate it.
func (s *MemoryStore) Table() *Table {
	return s.table
}

// Topics returns the topics in match priority order.
func (s *MemoryStore) Topics() []Topic {
	return append([]Topic(nil), s.table.Topics...)
}

// QuickTopics returns the topics flagged for the welcome card.
func (s *MemoryStore) QuickTopics() []Topic {
	quick := make([]Topic, 0, len(s.table.Topics))
	for _, topic := range s.table.Topics {
		if topic.Quick {
			quick = append(quick, topic)
		}
	}
	return quick
}

// FindByID looks up a topic by identifier.
func (s *MemoryStore) FindByID(id string) (Topic, bool) {
	for _, item := range s.table.Topics {
		if item.ID == id {
			return item, true
		}
	}
	return Topic{}, false
}
