package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu   sync.Mutex
	sent map[int64][]string
	fail map[int64]bool
}

func (r *recorder) Notify(_ context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[chatID] {
		return errors.New("blocked")
	}
	if r.sent == nil {
		r.sent = make(map[int64][]string)
	}
	r.sent[chatID] = append(r.sent[chatID], text)
	return nil
}

func TestDispatcherOperatorsSkipsFailures(t *testing.T) {
	rec := &recorder{fail: map[int64]bool{2: true}}
	d := NewDispatcher(rec, []int64{1, 2, 3}, nil)

	d.Operators(context.Background(), "new deposit")

	assert.Equal(t, []string{"new deposit"}, rec.sent[1])
	assert.Empty(t, rec.sent[2])
	assert.Equal(t, []string{"new deposit"}, rec.sent[3])
}

func TestNilDispatcherIsSilent(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.User(context.Background(), 1, "x")
		d.Operators(context.Background(), "x")
	})
}
