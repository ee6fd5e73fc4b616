package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

type blockingSink struct {
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingSink) Send(ctx context.Context, _ domain.Notification) error {
	s.calls.Add(1)
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failingSink struct{ calls atomic.Int32 }

func (s *failingSink) Send(context.Context, domain.Notification) error {
	s.calls.Add(1)
	return errors.New("provider down")
}

func TestDispatcher_DoesNotBlockCaller(t *testing.T) {
	slow := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(time.Second, slow)

	start := time.Now()
	d.Dispatch(domain.Notification{Message: "hi"})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(slow.release)
	require.NoError(t, d.Close(context.Background()))
	assert.EqualValues(t, 1, slow.calls.Load())
}

func TestDispatcher_FailuresAreSwallowedAndOtherSinksRun(t *testing.T) {
	bad := &failingSink{}
	good := &failingSink{}
	d := NewDispatcher(time.Second, bad, good)

	d.Dispatch(domain.Notification{Message: "one"})
	d.Dispatch(domain.Notification{Message: "two"})
	require.NoError(t, d.Close(context.Background()))

	assert.EqualValues(t, 2, bad.calls.Load())
	assert.EqualValues(t, 2, good.calls.Load())
}

func TestDispatcher_TimeoutBoundsDelivery(t *testing.T) {
	slow := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(20*time.Millisecond, slow)
	d.Dispatch(domain.Notification{Message: "late"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx), "delivery gives up at its own deadline")
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	sink := &failingSink{}
	d := NewDispatcher(time.Second, sink)
	require.NoError(t, d.Close(context.Background()))
	d.Dispatch(domain.Notification{Message: "ignored"})
	assert.EqualValues(t, 0, sink.calls.Load())
}

func TestTelegramSink_PostsToEveryChat(t *testing.T) {
	var mu sync.Mutex
	chats := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "New order ORD-ABC123", r.PostForm.Get("text"))
		mu.Lock()
		chats = append(chats, r.PostForm.Get("chat_id"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewTelegramSink("TOKEN", []string{"1", "2"}, srv.URL)
	err := sink.Send(context.Background(), domain.Notification{Message: "New order ORD-ABC123"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, chats)
}

func TestTelegramSink_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chat not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewTelegramSink("TOKEN", []string{"1"}, srv.URL).Send(context.Background(), domain.Notification{Message: "x"})
	assert.ErrorContains(t, err, "telegram status 400")

	err = NewTelegramSink("", nil, srv.URL).Send(context.Background(), domain.Notification{Message: "x"})
	assert.Error(t, err)
}

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSSink_Send(t *testing.T) {
	client := &mockSQS{}
	sink := NewSQSSink(client, "https://sqs.local/queue")

	err := sink.Send(context.Background(), domain.Notification{Recipient: "a@x.io", Message: "hello"})
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "https://sqs.local/queue", *in.QueueUrl)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &body))
	assert.Equal(t, "hello", body["message"])
	assert.Equal(t, "a@x.io", *in.MessageAttributes["recipient"].StringValue)

	client.err = errors.New("throttled")
	err = sink.Send(context.Background(), domain.Notification{Message: "again"})
	assert.ErrorContains(t, err, "throttled")
}
