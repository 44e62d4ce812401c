package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healthchat/backend/internal/model/chat"
	"github.com/healthchat/backend/internal/model/content"
)

type fakeAnswerer struct {
	reply string
	err   error
	calls int
}

func (f *fakeAnswerer) Answer(ctx context.Context, sessionID, query string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeSender struct {
	resp  chat.Response
	err   error
	calls int
}

func (f *fakeSender) Send(ctx context.Context, req chat.Request) (chat.Response, error) {
	f.calls++
	return f.resp, f.err
}

func defaultTable(t *testing.T) *content.Table {
	t.Helper()
	table, err := content.Default()
	require.NoError(t, err)
	return table
}

func topicResponse(t *testing.T, table *content.Table, id string) string {
	t.Helper()
	topic, ok := content.NewMemoryStore(table).FindByID(id)
	require.True(t, ok, "topic %s", id)
	return topic.Response
}

func TestTierOrder(t *testing.T) {
	r, err := New(defaultTable(t), Options{Answerer: &fakeAnswerer{}, Sender: &fakeSender{}})
	require.NoError(t, err)
	require.Equal(t, []string{"generative", "gateway", "canned", "default"}, r.Tiers())

	r, err = New(defaultTable(t), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"canned", "default"}, r.Tiers())
}

func TestCommonColdWithoutCredential(t *testing.T) {
	req := require.New(t)
	table := defaultTable(t)
	r, err := New(table, Options{})
	req.NoError(err)

	resp, err := r.Resolve(context.Background(), "What are common cold symptoms?", "s1")
	req.NoError(err)
	req.Equal(topicResponse(t, table, "common-cold"), resp.Message)
	req.Contains(resp.Message, "<li>Runny or stuffy nose</li>")
	req.Contains(resp.Message, "<li>Low-grade fever</li>")
	req.Equal("s1", resp.SessionID)
}

func TestCannedTopicsMatchCaseInsensitively(t *testing.T) {
	table := defaultTable(t)
	r, err := New(table, Options{})
	require.NoError(t, err)

	tests := []struct {
		input string
		topic string
	}{
		{input: "HEADACHE REMEDIES please", topic: "headache"},
		{input: "tips for stress management", topic: "stress"},
		{input: "covid-19 info", topic: "covid-19"},
		{input: "Is a melatonin supplement safe for sleep?", topic: "melatonin"},
		{input: "I can't sleep at night", topic: "sleep"},
		{input: "chronic Insomnia", topic: "sleep"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			resp, err := r.Resolve(context.Background(), tt.input, "s1")
			require.NoError(t, err)
			require.Equal(t, topicResponse(t, table, tt.topic), resp.Message)
		})
	}
}

func TestUnmatchedInputGetsDefaultWithDisclaimer(t *testing.T) {
	table := defaultTable(t)
	r, err := New(table, Options{})
	require.NoError(t, err)

	for _, input := range []string{"tell me about knees", "", "   "} {
		resp, err := r.Resolve(context.Background(), input, "s1")
		require.NoError(t, err)
		require.Equal(t, table.DefaultWithDisclaimer(), resp.Message)
		require.Contains(t, strings.ToLower(resp.Message), "disclaimer")
	}
}

func TestGenerativeWinsWhenAvailable(t *testing.T) {
	answerer := &fakeAnswerer{reply: "<p>model says</p>"}
	sender := &fakeSender{resp: chat.Response{Message: "gateway"}}
	r, err := New(defaultTable(t), Options{Answerer: answerer, Sender: sender})
	require.NoError(t, err)

	resp, err := r.Resolve(context.Background(), "common cold symptoms", "s1")
	require.NoError(t, err)
	require.Equal(t, "<p>model says</p>", resp.Message)
	require.Equal(t, 0, sender.calls)
}

func TestGenerativeSkippedForBlankInput(t *testing.T) {
	answerer := &fakeAnswerer{reply: "<p>model says</p>"}
	r, err := New(defaultTable(t), Options{Answerer: answerer})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "  ", "s1")
	require.NoError(t, err)
	require.Equal(t, 0, answerer.calls)
}

func TestFailuresFallThroughInOrder(t *testing.T) {
	table := defaultTable(t)
	answerer := &fakeAnswerer{err: errors.New("model down")}
	sender := &fakeSender{resp: chat.Response{Message: "<p>gateway</p>"}}
	r, err := New(table, Options{Answerer: answerer, Sender: sender})
	require.NoError(t, err)

	resp, err := r.Resolve(context.Background(), "headache remedies", "s1")
	require.NoError(t, err)
	require.Equal(t, "<p>gateway</p>", resp.Message)
	require.Equal(t, "s1", resp.SessionID)
	require.Equal(t, 1, answerer.calls)
	require.Equal(t, 1, sender.calls)

	sender.err = errors.New("502")
	resp, err = r.Resolve(context.Background(), "headache remedies", "s1")
	require.NoError(t, err)
	require.Equal(t, topicResponse(t, table, "headache"), resp.Message)
	require.Equal(t, 2, answerer.calls, "no retries within a tier")
	require.Equal(t, 2, sender.calls)
}

func TestNewWithTiersAlwaysEndsWithDefault(t *testing.T) {
	r := NewWithTiers("<p>fallback</p>")
	require.Equal(t, []string{"default"}, r.Tiers())

	resp, err := r.Resolve(context.Background(), "anything", "s9")
	require.NoError(t, err)
	require.Equal(t, chat.Response{Message: "<p>fallback</p>", SessionID: "s9"}, resp)
}
