package gemini

import (
	"container/list"
	"sync"
)

type conversation struct {
	mu      sync.Mutex
	session chatSession
}

// conversations is an LRU of chat sessions keyed by conversation id.
type conversations struct {
	mu    sync.Mutex
	max   int
	order *list.List
	byID  map[string]*list.Element
}

type conversationEntry struct {
	id   string
	conv *conversation
}

func newConversations(max int) *conversations {
	return &conversations{
		max:   max,
		order: list.New(),
		byID:  make(map[string]*list.Element),
	}
}

// get returns the conversation for id, creating it with newSession when
// missing. An empty id always yields a fresh, unremembered conversation.
func (c *conversations) get(id string, newSession func() chatSession) *conversation {
	if id == "" {
		return &conversation{session: newSession()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byID[id]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*conversationEntry).conv
	}

	conv := &conversation{session: newSession()}
	c.byID[id] = c.order.PushFront(&conversationEntry{id: id, conv: conv})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byID, oldest.Value.(*conversationEntry).id)
	}
	return conv
}

func (c *conversations) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
