package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthchat/backend/internal/model/chat"
)

// ErrSendInFlight rejects a send issued while the previous one is still being answered.
var ErrSendInFlight = errors.New("a message is already being answered")

// Resolver produces the bot reply for a user message. An error means the
// reply could not be fetched at all (transport failure).
type Resolver interface {
	Resolve(ctx context.Context, text, sessionID string) (chat.Response, error)
}

// EventType names a state change of a Controller.
type EventType string

const (
	EventMessage EventType = "message"
	EventTyping  EventType = "typing"
	EventReset   EventType = "reset"
)

// Event describes one state change, delivered in the order it happened.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId"`
	Message   *chat.Message `json:"message,omitempty"`
	Typing    bool          `json:"typing"`
}

// Snapshot is a copy of the full controller state.
type Snapshot struct {
	SessionID string         `json:"sessionId"`
	Messages  []chat.Message `json:"messages"`
	Typing    bool           `json:"typing"`
}

// Option customises a Controller.
type Option func(*Controller)

// WithListener registers fn to receive every Event. fn runs with the
// controller locked and must not call back into it.
func WithListener(fn func(Event)) Option {
	return func(c *Controller) { c.listener = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides how message and session ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// Controller holds one conversation: the message list, the typing flag and
// the session id passed to the resolver. The list only grows, except on
// ResetChat which swaps it for a single greeting.
type Controller struct {
	mu sync.Mutex

	resolver        Resolver
	greeting        string
	connectionError string

	sessionID string
	messages  []chat.Message
	typing    bool

	listener func(Event)
	now      func() time.Time
	newID    func() string
}

// NewController starts a conversation with a greeting and a fresh session id.
func NewController(resolver Resolver, greeting, connectionError string, opts ...Option) *Controller {
	c := &Controller{
		resolver:        resolver,
		greeting:        greeting,
		connectionError: connectionError,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sessionID = c.newID()
	c.messages = []chat.Message{c.newMessage(chat.SenderBot, greeting)}
	return c
}

// SendMessage appends text as a user message, asks the resolver for a reply
// and appends it. Blank text is ignored.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.typing {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.appendLocked(c.newMessage(chat.SenderUser, text))
	c.setTypingLocked(true)
	sessionID := c.sessionID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		// a reset already cleared typing for the new session
		if c.sessionID == sessionID {
			c.setTypingLocked(false)
		}
		c.mu.Unlock()
	}()

	reply := c.connectionError
	resp, err := c.resolver.Resolve(ctx, text, sessionID)
	if err != nil {
		log.Printf("[chat] resolve failed for session=%s: %v", sessionID, err)
	} else {
		reply = resp.Message
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID {
		log.Printf("[chat] dropping reply for session=%s after reset", sessionID)
		return nil
	}
	c.appendLocked(c.newMessage(chat.SenderBot, reply))
	return nil
}

// ResetChat replaces the conversation with a single greeting under a new
// session id. A send still in flight keeps running but no longer blocks new
// sends; its reply is discarded.
func (c *Controller) ResetChat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = c.newID()
	greeting := c.newMessage(chat.SenderBot, c.greeting)
	c.messages = []chat.Message{greeting}
	c.typing = false
	c.emitLocked(Event{Type: EventReset, SessionID: c.sessionID, Message: &greeting})
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.messages...)
}

// Typing reports whether a reply is being fetched.
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// SessionID returns the current correlation token.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Snapshot returns the whole state at once.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID: c.sessionID,
		Messages:  append([]chat.Message(nil), c.messages...),
		Typing:    c.typing,
	}
}

func (c *Controller) newMessage(sender chat.Sender, text string) chat.Message {
	return chat.Message{
		ID:        string(sender) + "-" + c.newID(),
		Text:      text,
		Sender:    sender,
		Timestamp: c.now().UnixMilli(),
	}
}

func (c *Controller) appendLocked(msg chat.Message) {
	c.messages = append(c.messages, msg)
	c.emitLocked(Event{Type: EventMessage, SessionID: c.sessionID, Message: &msg, Typing: c.typing})
}

func (c *Controller) setTypingLocked(typing bool) {
	if c.typing == typing {
		return
	}
	c.typing = typing
	c.emitLocked(Event{Type: EventTyping, SessionID: c.sessionID, Typing: typing})
}

func (c *Controller) emitLocked(evt Event) {
	if c.listener != nil {
		c.listener(evt)
	}
}
