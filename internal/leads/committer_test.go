package leads

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

type recordingFollowup struct {
	mu    sync.Mutex
	name  string
	leads []*Lead
	err   error
}

func (f *recordingFollowup) Name() string { return f.name }

func (f *recordingFollowup) HandleLead(_ context.Context, lead *Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.err
}

func (f *recordingFollowup) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.leads)
}

type failingRepository struct {
	Repository
	err error
}

func (r failingRepository) Save(context.Context, *CreateLeadRequest) (*Lead, bool, error) {
	return nil, false, r.err
}

func TestCommitterRunsFollowupsOnce(t *testing.T) {
	broken := &recordingFollowup{name: "email", err: errors.New("smtp down")}
	ok := &recordingFollowup{name: "sms"}
	var panicked bool
	boom := FollowupFunc{Label: "boom", Fn: func(context.Context, *Lead) error {
		panicked = true
		panic("nil map")
	}}
	c := NewCommitter(NewInMemoryRepository(), logging.New("error"), broken, boom, ok)

	lead, created, err := c.Commit(context.Background(), *validRequest("web:a"))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := c.Commit(context.Background(), *validRequest("web:a"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, lead.ID, again.ID)

	c.Wait()
	assert.Equal(t, 1, broken.count())
	assert.Equal(t, 1, ok.count(), "a failing or panicking followup does not stop the rest")
	assert.True(t, panicked)
	assert.Equal(t, lead.ID, ok.leads[0].ID)
}

func TestCommitterFollowupsOutliveRequestContext(t *testing.T) {
	var seen error
	done := make(chan struct{})
	f := FollowupFunc{Label: "ctx", Fn: func(ctx context.Context, _ *Lead) error {
		seen = ctx.Err()
		close(done)
		return nil
	}}
	c := NewCommitter(NewInMemoryRepository(), logging.New("error"), f)

	ctx, cancel := context.WithCancel(context.Background())
	_, _, err := c.Commit(ctx, *validRequest("web:a"))
	cancel()
	require.NoError(t, err)

	<-done
	c.Wait()
	assert.NoError(t, seen)
}

func TestCommitterSaveError(t *testing.T) {
	f := &recordingFollowup{name: "email"}
	c := NewCommitter(failingRepository{err: errors.New("db unavailable")}, logging.New("error"), f)

	_, created, err := c.Commit(context.Background(), *validRequest("web:a"))
	assert.ErrorContains(t, err, "leads: commit")
	assert.False(t, created)
	c.Wait()
	assert.Zero(t, f.count())
}
