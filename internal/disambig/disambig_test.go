package disambig

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-snake-bot/internal/platform"
)

// fakeWaiter feeds canned messages to AwaitMessage.
type fakeWaiter struct {
	msgs chan platform.Message
}

func newFakeWaiter() *fakeWaiter {
	return &fakeWaiter{msgs: make(chan platform.Message, 8)}
}

func (w *fakeWaiter) AwaitMessage(ctx context.Context, pred func(platform.Message) bool) (platform.Message, error) {
	for {
		select {
		case <-ctx.Done():
			return platform.Message{}, ctx.Err()
		case m := <-w.msgs:
			if pred(m) {
				return m, nil
			}
		}
	}
}

// fakePresenter records what it was asked to present and forwards
// scripted events. cancelled closes once the presentation context ends,
// which is how tests observe the loser-cancellation invariant.
type fakePresenter struct {
	mu        sync.Mutex
	presented int
	lines     []string

	events    chan Event
	cancelled chan struct{}
	once      sync.Once
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		events:    make(chan Event, 8),
		cancelled: make(chan struct{}),
	}
}

func (p *fakePresenter) Present(ctx context.Context, channelID, userID string, lines []string, color int) <-chan Event {
	p.mu.Lock()
	p.presented++
	p.lines = lines
	p.mu.Unlock()

	out := make(chan Event, 8)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				p.once.Do(func() { close(p.cancelled) })
				return
			case ev := <-p.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					p.once.Do(func() { close(p.cancelled) })
					return
				}
			}
		}
	}()
	return out
}

func (p *fakePresenter) presentedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presented
}

func (p *fakePresenter) presentedLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines
}

func (p *fakePresenter) wasCancelled(t *testing.T) {
	t.Helper()
	select {
	case <-p.cancelled:
	case <-time.After(time.Second):
		t.Fatal("presenter wait was never cancelled")
	}
}

func newRequest(candidates []string) *Request {
	return &Request{
		UserID:     "user-1",
		ChannelID:  "chan-1",
		Candidates: candidates,
		Timeout:    2 * time.Second,
	}
}

func reply(content string) platform.Message {
	return platform.Message{ChannelID: "chan-1", AuthorID: "user-1", Content: content}
}

func TestDisambiguate_NoMatches(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	_, err := d.Disambiguate(context.Background(), newRequest(nil))
	assert.ErrorIs(t, err, ErrNoMatches)
	assert.Zero(t, presenter.presentedCount(), "no prompt may be sent for an empty candidate list")
}

func TestDisambiguate_Singleton(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	choice, err := d.Disambiguate(context.Background(), newRequest([]string{"Python regius"}))
	require.NoError(t, err)
	assert.Equal(t, "Python regius", choice)
	assert.Zero(t, presenter.presentedCount(), "no prompt may be sent for a single candidate")
}

func TestDisambiguate_ReplyInRange(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	waiter.msgs <- reply("2")

	choice, err := d.Disambiguate(context.Background(), newRequest([]string{"a", "b", "c"}))
	require.NoError(t, err)
	assert.Equal(t, "b", choice)

	assert.Equal(t, []string{"1: a", "2: b", "3: c"}, presenter.presentedLines())
	presenter.wasCancelled(t)
}

func TestDisambiguate_NonQualifyingRepliesIgnored(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	// Wrong author, wrong channel, and non-numeric content must all be
	// skipped before the qualifying reply lands.
	waiter.msgs <- platform.Message{ChannelID: "chan-1", AuthorID: "someone-else", Content: "1"}
	waiter.msgs <- platform.Message{ChannelID: "chan-2", AuthorID: "user-1", Content: "1"}
	waiter.msgs <- reply("two")
	waiter.msgs <- reply("3 please")
	waiter.msgs <- reply("3")

	choice, err := d.Disambiguate(context.Background(), newRequest([]string{"a", "b", "c"}))
	require.NoError(t, err)
	assert.Equal(t, "c", choice)
}

func TestDisambiguate_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"zero", "0"},
		{"one past end", "4"},
		{"far past end", "999"},
		{"overflows int", "99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waiter := newFakeWaiter()
			presenter := newFakePresenter()
			d := New(waiter, presenter)

			waiter.msgs <- reply(tt.reply)

			_, err := d.Disambiguate(context.Background(), newRequest([]string{"a", "b", "c"}))
			assert.ErrorIs(t, err, ErrInvalidChoice)
			presenter.wasCancelled(t)
		})
	}
}

func TestDisambiguate_Timeout(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	req := newRequest([]string{"a", "b"})
	req.Timeout = 50 * time.Millisecond

	_, err := d.Disambiguate(context.Background(), req)
	assert.ErrorIs(t, err, ErrTimedOut)
	presenter.wasCancelled(t)
}

func TestDisambiguate_ControlCancel(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	presenter.events <- Event{Kind: EventControlCancel}

	_, err := d.Disambiguate(context.Background(), newRequest([]string{"a", "b"}))
	assert.ErrorIs(t, err, ErrCancelled)
	presenter.wasCancelled(t)
}

func TestDisambiguate_NonResolvingEventsAreSkipped(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	// A presenter page-turn and an idle timeout must not resolve the
	// request; the reply after them must.
	presenter.events <- Event{Kind: EventPresenterInternal}
	presenter.events <- Event{Kind: EventControlTimeout}
	go func() {
		time.Sleep(50 * time.Millisecond)
		waiter.msgs <- reply("1")
	}()

	choice, err := d.Disambiguate(context.Background(), newRequest([]string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, "a", choice)
}

func TestDisambiguate_ParentContextCancelled(t *testing.T) {
	waiter := newFakeWaiter()
	presenter := newFakePresenter()
	d := New(waiter, presenter)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := d.Disambiguate(ctx, newRequest([]string{"a", "b"}))
	assert.ErrorIs(t, err, context.Canceled)
	presenter.wasCancelled(t)
}
