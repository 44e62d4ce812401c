package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidTable reports a content table that cannot serve replies.
var ErrInvalidTable = errors.New("invalid content table")

// Topic is one canned answer keyed by the phrases that select it.
type Topic struct {
	ID       string   `yaml:"id" json:"id"`
	Title    string   `yaml:"title" json:"title"`
	Quick    bool     `yaml:"quick" json:"-"`
	Keywords []string `yaml:"keywords" json:"-"`
	Response string   `yaml:"response" json:"-"`
}

// Table holds every static text the chat can send without a network call.
// Topic order is match priority.
type Table struct {
	Greeting        string  `yaml:"greeting"`
	ConnectionError string  `yaml:"connection_error"`
	Disclaimer      string  `yaml:"disclaimer"`
	DefaultResponse string  `yaml:"default_response"`
	Topics          []Topic `yaml:"topics"`
}

// Validate checks the table and normalises keywords to lower case.
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Greeting) == "" {
		return fmt.Errorf("%w: greeting is empty", ErrInvalidTable)
	}
	if strings.TrimSpace(t.ConnectionError) == "" {
		return fmt.Errorf("%w: connection_error is empty", ErrInvalidTable)
	}
	if strings.TrimSpace(t.Disclaimer) == "" {
		return fmt.Errorf("%w: disclaimer is empty", ErrInvalidTable)
	}
	if strings.TrimSpace(t.DefaultResponse) == "" {
		return fmt.Errorf("%w: default_response is empty", ErrInvalidTable)
	}

	seen := make(map[string]struct{}, len(t.Topics))
	for i := range t.Topics {
		topic := &t.Topics[i]
		if topic.ID == "" {
			return fmt.Errorf("%w: topic #%d has no id", ErrInvalidTable, i)
		}
		if _, dup := seen[topic.ID]; dup {
			return fmt.Errorf("%w: duplicate topic id %q", ErrInvalidTable, topic.ID)
		}
		seen[topic.ID] = struct{}{}

		keywords := lo.Uniq(lo.FilterMap(topic.Keywords, func(k string, _ int) (string, bool) {
			k = strings.ToLower(strings.TrimSpace(k))
			return k, k != ""
		}))
		if len(keywords) == 0 {
			return fmt.Errorf("%w: topic %q has no keywords", ErrInvalidTable, topic.ID)
		}
		topic.Keywords = keywords

		if strings.TrimSpace(topic.Response) == "" {
			return fmt.Errorf("%w: topic %q has an empty response", ErrInvalidTable, topic.ID)
		}
	}
	return nil
}

// DefaultWithDisclaimer is the last-resort reply.
func (t *Table) DefaultWithDisclaimer() string {
	return t.DefaultResponse + t.Disclaimer
}
