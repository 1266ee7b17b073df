package console

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAcker is a mock acknowledgement client for testing
type mockAcker struct {
	AckFn func(ctx context.Context, handle alert.DeliveryHandle) error
	calls []alert.DeliveryHandle
}

func (m *mockAcker) Ack(ctx context.Context, handle alert.DeliveryHandle) error {
	m.calls = append(m.calls, handle)
	if m.AckFn != nil {
		return m.AckFn(ctx, handle)
	}
	return nil
}

// mockSource is a mock alert source for testing
type mockSource struct {
	name    string
	StartFn func() error
	StopFn  func() error
	started bool
	stopped bool
}

func (m *mockSource) Start() error {
	m.started = true
	if m.StartFn != nil {
		return m.StartFn()
	}
	return nil
}

func (m *mockSource) Stop() error {
	m.stopped = true
	if m.StopFn != nil {
		return m.StopFn()
	}
	return nil
}

func (m *mockSource) Name() string { return m.name }

func TestConsole_AcknowledgeClearsAndCallsBackend(t *testing.T) {
	acker := &mockAcker{}
	c := New(testLogger(), acker, AckPolicySilent)

	c.Mailbox().Deliver(&alert.Alert{Location: "Quito", Keywords: "robo, arma"}, 42)

	require.NoError(t, c.Acknowledge(context.Background(), "report submitted"))

	require.Len(t, acker.calls, 1)
	assert.Equal(t, alert.DeliveryHandle(42), acker.calls[0])

	got, handle := c.Current()
	assert.Nil(t, got)
	assert.Equal(t, alert.DeliveryHandle(0), handle)
}

func TestConsole_DoubleAcknowledgeIsNoOp(t *testing.T) {
	acker := &mockAcker{}
	c := New(testLogger(), acker, AckPolicySurfaced)

	c.Mailbox().Deliver(&alert.Alert{Location: "Quito"}, 42)

	require.NoError(t, c.Acknowledge(context.Background(), "handled"))
	require.NoError(t, c.Acknowledge(context.Background(), "handled"))

	// Only the first call reaches the backend
	assert.Len(t, acker.calls, 1)
}

func TestConsole_AckFailurePolicies(t *testing.T) {
	t.Run("silent policy swallows the failure", func(t *testing.T) {
		acker := &mockAcker{AckFn: func(context.Context, alert.DeliveryHandle) error {
			return errors.New("backend unreachable")
		}}
		c := New(testLogger(), acker, AckPolicySilent)
		c.Mailbox().Deliver(&alert.Alert{Location: "Quito"}, 42)

		assert.NoError(t, c.Acknowledge(context.Background(), "handled"))

		// Failed ack keeps the alert for a retry
		got, _ := c.Current()
		assert.NotNil(t, got)
	})

	t.Run("surfaced policy returns the failure", func(t *testing.T) {
		acker := &mockAcker{AckFn: func(context.Context, alert.DeliveryHandle) error {
			return errors.New("backend unreachable")
		}}
		c := New(testLogger(), acker, AckPolicySurfaced)
		c.Mailbox().Deliver(&alert.Alert{Location: "Quito"}, 42)

		err := c.Acknowledge(context.Background(), "handled")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to acknowledge alert")
	})
}

func TestConsole_AcknowledgeDropsSocketAlertLocally(t *testing.T) {
	acker := &mockAcker{}
	c := New(testLogger(), acker, AckPolicySilent)

	// Socket-pushed alerts carry no delivery handle
	c.Mailbox().Deliver(&alert.Alert{Location: "Quito"}, 0)

	require.NoError(t, c.Acknowledge(context.Background(), "false alarm"))

	assert.Empty(t, acker.calls)
	got, _ := c.Current()
	assert.Nil(t, got)
}

func TestConsole_Lifecycle(t *testing.T) {
	c := New(testLogger(), &mockAcker{}, AckPolicySilent)

	queueSrc := &mockSource{name: "queue"}
	socketSrc := &mockSource{name: "socket"}
	require.NoError(t, c.AddSource(queueSrc))
	require.NoError(t, c.AddSource(socketSrc))

	require.NoError(t, c.Start())
	assert.True(t, queueSrc.started)
	assert.True(t, socketSrc.started)

	assert.Error(t, c.Start(), "double start must fail")
	assert.Error(t, c.AddSource(&mockSource{name: "late"}), "cannot add sources while running")

	require.NoError(t, c.Stop())
	assert.True(t, queueSrc.stopped)
	assert.True(t, socketSrc.stopped)

	assert.NoError(t, c.Stop(), "stop is idempotent")
}

func TestConsole_StartFailureRollsBack(t *testing.T) {
	c := New(testLogger(), &mockAcker{}, AckPolicySilent)

	okSrc := &mockSource{name: "a-queue"}
	badSrc := &mockSource{name: "b-socket", StartFn: func() error {
		return errors.New("dial failed")
	}}
	require.NoError(t, c.AddSource(okSrc))
	require.NoError(t, c.AddSource(badSrc))

	err := c.Start()
	require.Error(t, err)

	// Whatever started before the failure must be stopped again
	if okSrc.started {
		assert.True(t, okSrc.stopped)
	}
}

func TestNotifier_FanOut(t *testing.T) {
	n := NewNotifier()

	ch1, cancel1 := n.Subscribe()
	ch2, cancel2 := n.Subscribe()
	defer cancel2()

	n.Publish(alert.Alert{Location: "Quito"})

	assert.Equal(t, "Quito", (<-ch1).Location)
	assert.Equal(t, "Quito", (<-ch2).Location)

	cancel1()
	_, open := <-ch1
	assert.False(t, open, "cancel closes the subscriber channel")

	// Publishing after a cancel must not panic or block
	n.Publish(alert.Alert{Location: "Cuenca"})
	assert.Equal(t, "Cuenca", (<-ch2).Location)
}

func TestNotifier_SlowSubscriberDoesNotBlock(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	_, cancel := n.Subscribe()
	defer cancel()

	// Publish far past the buffer; must return promptly without a reader
	for i := 0; i < subscriberBuffer*4; i++ {
		n.Publish(alert.Alert{Location: "Quito"})
	}
}
