package main

import (
	"context"
	"errors"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeApp struct {
	onceErr  error
	ran      bool
	ranOnce  bool
	shutdown bool
}

func (f *fakeApp) Run(ctx context.Context) error {
	f.ran = true
	<-ctx.Done()
	return nil
}

func (f *fakeApp) RunOnce(context.Context) error {
	f.ranOnce = true
	return f.onceErr
}

func (f *fakeApp) Shutdown(context.Context) error {
	f.shutdown = true
	return nil
}

func stubSignal(t *testing.T, sig os.Signal) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			ch <- sig
		}()
	}
}

func TestRunStopsOnSignal(t *testing.T) {
	stubSignal(t, syscall.SIGTERM)
	core, logs := observer.New(zap.WarnLevel)
	app := &fakeApp{}

	done := make(chan int, 1)
	go func() {
		done <- run(app, false, time.Millisecond, zap.New(core))
	}()

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("expected exit code 0 on interrupt, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected run to return after signal")
	}

	if !app.ran || !app.shutdown {
		t.Fatalf("expected loop to run and app to shut down: %+v", app)
	}
	if logs.FilterMessageSnippet("shutting down").Len() != 1 {
		t.Fatalf("expected a shutdown notice")
	}
}

func TestRunOnceExitCodes(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})
	signalNotify = func(chan<- os.Signal, ...os.Signal) {}

	ok := &fakeApp{}
	if code := run(ok, true, time.Millisecond, zaptest.NewLogger(t)); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !ok.ranOnce || ok.ran || !ok.shutdown {
		t.Fatalf("expected only a single cycle: %+v", ok)
	}

	failing := &fakeApp{onceErr: errors.New("list products: boom")}
	if code := run(failing, true, time.Millisecond, zaptest.NewLogger(t)); code != 1 {
		t.Fatalf("expected exit code 1 for failed cycle, got %d", code)
	}
}
