package amqp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "tracker/internal/log"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed sentinel", amqp091.ErrClosed, true},
		{"wrapped closed sentinel", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should turn half-open after timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", atomic.LoadInt32(&client.state))
	}

	// One failure while half-open reopens immediately.
	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("half-open failure should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should reset the breaker")
	}
}

func TestClient_PublishLedgerEvent_Guards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	evt := NewLedgerEvent(KindAppend, "s1", 1, 100000)

	t.Run("open circuit", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishLedgerEvent(context.Background(), evt)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("expected ErrCircuitOpen, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client.recordSuccess()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.PublishLedgerEvent(ctx, evt); err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

// silentBroker accepts TCP connections and never answers the handshake.
func silentBroker(t *testing.T) (addr string, accepted *atomic.Int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	accepted = &atomic.Int32{}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().String(), accepted
}

func TestClient_PublishDoesNotWaitForDial(t *testing.T) {
	addr, accepted := silentBroker(t)
	client := &Client{
		url:          "amqp://guest:guest@" + addr + "/",
		exchangeName: "test_exchange",
		queueName:    "test_queue",
		logger:       applog.Discard(),
		dialTimeout:  2 * time.Second,
	}
	defer client.Close()
	evt := NewLedgerEvent(KindAppend, "s1", 1, 100000)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := client.PublishLedgerEvent(ctx, evt); err == nil {
			t.Fatal("expected error without a connection")
		}
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("publish blocked for %v", elapsed)
	}

	deadline := time.Now().Add(time.Second)
	for accepted.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if n := accepted.Load(); n != 1 {
		t.Fatalf("expected a single background dial, got %d", n)
	}
}

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue []bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acked++; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = append(f.requeue, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func TestClient_HandleDelivery(t *testing.T) {
	client := &Client{logger: applog.Discard()}
	evt := NewLedgerEvent(KindReset, "s1", 0, 0)
	failing := func(*LedgerEvent) error { return errors.New("write: broken pipe") }

	tests := []struct {
		name        string
		redelivered bool
		handler     func(*LedgerEvent) error
		wantAck     int
		wantRequeue []bool
	}{
		{"handled", false, func(*LedgerEvent) error { return nil }, 1, nil},
		{"first failure is requeued", false, failing, 0, []bool{true}},
		{"repeated failure is dropped", true, failing, 0, []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			d := amqp091.Delivery{Acknowledger: ack, Redelivered: tt.redelivered}
			client.handleDelivery(context.Background(), d, evt, tt.handler)
			if ack.acked != tt.wantAck {
				t.Errorf("acked = %d, want %d", ack.acked, tt.wantAck)
			}
			if fmt.Sprint(ack.requeue) != fmt.Sprint(tt.wantRequeue) {
				t.Errorf("requeue = %v, want %v", ack.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	evt := NewLedgerEvent(KindImport, "abc", 12, 50000)
	if evt.Timestamp.IsZero() || time.Since(evt.Timestamp) > time.Second {
		t.Fatalf("timestamp should be recent, got %v", evt.Timestamp)
	}

	data, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(data), `"kind":"import"`) {
		t.Errorf("unexpected payload %s", data)
	}

	parsed, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if parsed.Kind != evt.Kind || parsed.SessionID != "abc" || parsed.Records != 12 || parsed.BudgetCents != 50000 {
		t.Errorf("parsed = %+v, want %+v", parsed, evt)
	}
	if !parsed.Timestamp.Equal(evt.Timestamp) {
		t.Errorf("timestamp = %v, want %v", parsed.Timestamp, evt.Timestamp)
	}
}

func TestLedgerEventFromJSON_Invalid(t *testing.T) {
	for _, in := range []string{`{"kind": 1}`, `{"records": 3}`, `not json`} {
		if _, err := LedgerEventFromJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
