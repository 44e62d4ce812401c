package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/healthchat/backend/internal/analysis/keyword"
	"github.com/healthchat/backend/internal/model/chat"
	"github.com/healthchat/backend/internal/model/content"
)

// errNoMatch marks a tier that had nothing to say for the input.
var errNoMatch = errors.New("no match")

// Strategy is one tier of the fallback chain. A tier either produces a reply
// or returns an error; the resolver moves on to the next tier on error.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, req chat.Request) (chat.Response, error)
}

// Answerer is the generative backend, satisfied by *ai.Service.
type Answerer interface {
	Answer(ctx context.Context, sessionID, query string) (string, error)
}

// Sender is the remote gateway, satisfied by *gateway.Client.
type Sender interface {
	Send(ctx context.Context, req chat.Request) (chat.Response, error)
}

type generativeStrategy struct {
	answerer Answerer
}

// Generative asks a language model for the reply.
func Generative(answerer Answerer) Strategy {
	return &generativeStrategy{answerer: answerer}
}

func (s *generativeStrategy) Name() string { return "generative" }

func (s *generativeStrategy) Resolve(ctx context.Context, req chat.Request) (chat.Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return chat.Response{}, errNoMatch
	}
	reply, err := s.answerer.Answer(ctx, req.SessionID, req.Message)
	if err != nil {
		return chat.Response{}, err
	}
	return chat.Response{Message: reply, SessionID: req.SessionID}, nil
}

type gatewayStrategy struct {
	sender Sender
}

// Gateway forwards the message to a remote chat endpoint.
func Gateway(sender Sender) Strategy {
	return &gatewayStrategy{sender: sender}
}

func (s *gatewayStrategy) Name() string { return "gateway" }

func (s *gatewayStrategy) Resolve(ctx context.Context, req chat.Request) (chat.Response, error) {
	return s.sender.Send(ctx, req)
}

type cannedStrategy struct {
	topics  []content.Topic
	matcher *keyword.Matcher
}

// Canned answers from the keyword-matched topic table.
func Canned(topics []content.Topic) (Strategy, error) {
	groups := make([][]string, len(topics))
	for i, topic := range topics {
		groups[i] = topic.Keywords
	}

	matcher, err := keyword.NewMatcher(groups)
	if err != nil {
		return nil, err
	}
	return &cannedStrategy{topics: topics, matcher: matcher}, nil
}

func (s *cannedStrategy) Name() string { return "canned" }

func (s *cannedStrategy) Resolve(_ context.Context, req chat.Request) (chat.Response, error) {
	idx, ok := s.matcher.Match(req.Message)
	if !ok {
		return chat.Response{}, errNoMatch
	}
	return chat.Response{Message: s.topics[idx].Response, SessionID: req.SessionID}, nil
}

type defaultStrategy struct {
	reply string
}

// Default always answers with the generic guidance block.
func Default(reply string) Strategy {
	return &defaultStrategy{reply: reply}
}

func (s *defaultStrategy) Name() string { return "default" }

func (s *defaultStrategy) Resolve(_ context.Context, req chat.Request) (chat.Response, error) {
	return chat.Response{Message: s.reply, SessionID: req.SessionID}, nil
}
