package utils

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("boom")

func TestSyncPipe_SignalAndWait(t *testing.T) {
	p, err := NewSyncPipe()
	if err != nil {
		t.Fatalf("NewSyncPipe: %v", err)
	}
	defer p.Close()

	go func() {
		p.Signal()
	}()

	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSyncPipe_WaitWithErrorPropagatesMessage(t *testing.T) {
	p, err := NewSyncPipe()
	if err != nil {
		t.Fatalf("NewSyncPipe: %v", err)
	}
	defer p.Close()

	go func() {
		p.SignalError(errTest)
	}()

	err = p.WaitWithError()
	if err == nil || err.Error() != errTest.Error() {
		t.Errorf("WaitWithError() = %v, want %v", err, errTest)
	}
}

func TestSyncPipe_WaitWithErrorNilOnCleanSignal(t *testing.T) {
	p, err := NewSyncPipe()
	if err != nil {
		t.Fatalf("NewSyncPipe: %v", err)
	}
	defer p.Close()

	go func() {
		p.Signal()
	}()

	if err := p.WaitWithError(); err != nil {
		t.Errorf("WaitWithError() = %v, want nil", err)
	}
}

func TestNewSyncPipeChild_SignalsAcrossInheritedFd(t *testing.T) {
	p, err := NewSyncPipe()
	if err != nil {
		t.Fatalf("NewSyncPipe: %v", err)
	}
	defer p.CloseParent()

	childSide := NewSyncPipeChild(p.ChildFile())
	go func() {
		childSide.Signal()
		childSide.CloseChild()
	}()

	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSyncPipe_WaitRespectsReadDeadline(t *testing.T) {
	p, err := NewSyncPipe()
	if err != nil {
		t.Fatalf("NewSyncPipe: %v", err)
	}
	defer p.Close()

	if err := p.ParentFile().SetReadDeadline(time.Now().Add(10 * time.Millisecond)); err != nil {
		t.Skipf("SetReadDeadline unsupported on this platform's pipes: %v", err)
	}

	if err := p.Wait(); err == nil {
		t.Error("expected a timeout error when nothing signals the pipe")
	}
}
