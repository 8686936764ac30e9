package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeServer struct {
	startErr error
	started  chan struct{}
}

func (f *fakeServer) Serve(ctx context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func TestSupervisor_RunStopsOnContextCancel(t *testing.T) {
	sup := New(zap.NewNop())
	a := &fakeServer{started: make(chan struct{})}
	b := &fakeServer{started: make(chan struct{})}
	sup.Add("a", a)
	sup.Add("b", b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	<-a.started
	<-b.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after context cancel")
	}
}

func TestSupervisor_RunPropagatesFailure(t *testing.T) {
	sup := New(zap.NewNop())
	boom := errors.New("bind failed")
	sup.Add("broken", &fakeServer{startErr: boom})
	sup.Add("ok", &fakeServer{started: make(chan struct{})})

	err := sup.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
}
