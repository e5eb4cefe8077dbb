package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libmcu/ocpp-session-core/internal/config"
	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

// fakeClock lets tests drive now() deterministically instead of
// depending on wall-clock time.
type fakeClock struct {
	mu sync.Mutex
	t  int64
}

func (c *fakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// fakeIDGen produces predictable sequential ids so correlation tests
// can reference them by value.
type fakeIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *fakeIDGen) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// fakeTransport is an in-memory Transport: Send is controlled by
// sendFunc (or sendErr if unset), Recv drains a FIFO of queued
// InboundFrame values and otherwise reports ErrNoMessage.
type fakeTransport struct {
	mu        sync.Mutex
	sendErr   error
	sendFunc  func(Message) error
	recvQueue []InboundFrame
	sent      []Message
}

func (f *fakeTransport) Send(m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	if f.sendFunc != nil {
		return f.sendFunc(m)
	}
	return f.sendErr
}

func (f *fakeTransport) Recv() (InboundFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recvQueue) == 0 {
		return InboundFrame{}, ErrNoMessage
	}
	in := f.recvQueue[0]
	f.recvQueue = f.recvQueue[1:]
	return in, nil
}

func (f *fakeTransport) enqueue(in InboundFrame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recvQueue = append(f.recvQueue, in)
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestStore(t *testing.T, heartbeat, retryInterval time.Duration, txAttempts int) *config.Store {
	s, err := config.NewStore(config.OCPPConfig{
		HeartbeatInterval:               heartbeat,
		TransactionMessageRetryInterval: retryInterval,
		TransactionMessageAttempts:      txAttempts,
	})
	require.NoError(t, err)
	return s
}

// Scenario A: heartbeat cadence. After a completed BootNotification
// round trip, a heartbeat must fire at t == HeartbeatInterval and not
// a second before.
func TestScenario_HeartbeatCadence(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 30*time.Second, time.Second, 3)
	tr := &fakeTransport{}
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
	)

	id, err := e.PushRequest(ocpp16.MessageBootNotification, nil, false)
	require.NoError(t, err)
	require.NoError(t, e.Step(0))
	assert.Equal(t, 1, tr.sentCount())

	tr.enqueue(InboundFrame{Message: Message{ID: id, Role: ocpp16.RoleCallResult}})
	clock.set(0)
	require.NoError(t, e.Step(0))
	e.SetBootAccepted(true)

	clock.set(29)
	require.NoError(t, e.Step(29))
	assert.Equal(t, 1, tr.sentCount(), "no heartbeat should fire before the interval elapses")

	clock.set(30)
	require.NoError(t, e.Step(30))
	assert.Equal(t, 2, tr.sentCount(), "heartbeat must fire exactly at the interval")
}

// Scenario B: BootNotification retries indefinitely on transport
// failure and is never dropped.
func TestScenario_BootNotificationIndefiniteRetry(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 30*time.Second, time.Second, 3)
	tr := &fakeTransport{sendErr: fmt.Errorf("boom")}
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
		WithTXTimeoutSec(5),
	)

	_, err := e.PushRequest(ocpp16.MessageBootNotification, nil, false)
	require.NoError(t, err)

	now := int64(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, e.Step(now))
		assert.Equal(t, 1, e.CountPendingRequests(), "boot notification must survive step %d", i)
		now += 30
		clock.set(now)
	}
}

// Scenario C: a droppable message is freed after exhausting its
// retry budget and nothing further is sent.
func TestScenario_DroppableExhaustion(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 0, time.Second, 3)
	tr := &fakeTransport{sendErr: fmt.Errorf("boom")}

	var freed []Message
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
		WithTXTimeoutSec(5),
		WithTXRetries(2),
		WithEventHandler(func(evt Event, msg Message, err error) {
			if evt == EventFree {
				freed = append(freed, msg)
			}
		}),
	)

	_, err := e.PushRequest(ocpp16.MessageDataTransfer, nil, false)
	require.NoError(t, err)

	require.NoError(t, e.Step(0))
	assert.Equal(t, 1, tr.sentCount())

	clock.set(5)
	require.NoError(t, e.Step(5))
	assert.Equal(t, 2, tr.sentCount())

	clock.set(10)
	require.NoError(t, e.Step(10))

	assert.Equal(t, 0, e.CountPendingRequests())
	require.Len(t, freed, 1)
	assert.Equal(t, ocpp16.MessageDataTransfer, freed[0].Type)
}

// Scenario D: overflow eviction. A full pool rejects a forceless push
// with ErrOutOfMemory; a forced push evicts one evictable slot and
// succeeds.
func TestScenario_OverflowEviction(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 0, time.Second, 3)
	tr := &fakeTransport{}

	var freed int
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
		WithPoolSize(8),
		WithEventHandler(func(evt Event, msg Message, err error) {
			if evt == EventFree {
				freed++
			}
		}),
	)

	for i := 0; i < 8; i++ {
		_, err := e.PushRequest(ocpp16.MessageDataTransfer, nil, false)
		require.NoError(t, err)
	}

	_, err := e.PushRequest(ocpp16.MessageStartTransaction, nil, false)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	id, err := e.PushRequest(ocpp16.MessageStartTransaction, nil, true)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, freed)
}

// Scenario E: a transaction-related message receiving CALLERROR is
// requeued until the configured attempt budget is exhausted, then
// freed.
func TestScenario_TransactionCallErrorBackoff(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 0, time.Second, 3)
	tr := &fakeTransport{}

	var freed int
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
		WithTXTimeoutSec(100),
		WithEventHandler(func(evt Event, msg Message, err error) {
			if evt == EventFree {
				freed++
			}
		}),
	)

	id, err := e.PushRequest(ocpp16.MessageStartTransaction, nil, false)
	require.NoError(t, err)

	now := int64(0)
	require.NoError(t, e.Step(now))
	assert.Equal(t, 1, tr.sentCount())

	for i := 0; i < 2; i++ {
		now++
		clock.set(now)
		tr.enqueue(InboundFrame{
			Message:   Message{ID: id, Role: ocpp16.RoleCallError},
			ErrorCode: "InternalError",
		})
		require.NoError(t, e.Step(now))
		assert.Equal(t, 1, e.CountPendingRequests(), "transaction message must be requeued, not freed, while budget remains")
		assert.Equal(t, 0, freed)

		now++
		clock.set(now)
		require.NoError(t, e.Step(now))
	}

	now++
	clock.set(now)
	tr.enqueue(InboundFrame{
		Message:   Message{ID: id, Role: ocpp16.RoleCallError},
		ErrorCode: "InternalError",
	})
	require.NoError(t, e.Step(now))
	assert.Equal(t, 1, freed, "final CALLERROR at the attempt budget must free the slot")
	assert.Equal(t, 0, e.CountPendingRequests())
}

// Scenario F: correlation by id. With one CALL in flight and a second
// pending in ready, a CALLRESULT with an unknown id changes nothing, and
// a CALLRESULT for the in-flight CALL frees only that slot.
func TestScenario_Correlation(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 0, time.Second, 3)
	tr := &fakeTransport{}

	var incoming int
	var freed []string
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
		WithEventHandler(func(evt Event, msg Message, err error) {
			switch evt {
			case EventIncoming:
				incoming++
			case EventFree:
				freed = append(freed, msg.ID)
			}
		}),
	)

	idA, err := e.PushRequest(ocpp16.MessageDataTransfer, nil, false)
	require.NoError(t, err)
	require.NoError(t, e.Step(0))

	// idA is now in wait; an inbound response with an unknown id must
	// not match it.
	tr.enqueue(InboundFrame{Message: Message{ID: "irrelevant-noise", Role: ocpp16.RoleCallResult}})
	require.NoError(t, e.Step(0)) // correlation miss, no state change

	idB, err := e.PushRequestDefer(ocpp16.MessageHeartbeat, nil, false, 0)
	require.NoError(t, err)
	_ = idB

	// idA is still the only slot in wait (at-most-one-in-flight), so
	// respond to it directly to exercise correlation by id.
	tr.enqueue(InboundFrame{Message: Message{ID: idA, Role: ocpp16.RoleCallResult}})
	require.NoError(t, e.Step(0))

	require.Len(t, freed, 1)
	assert.Equal(t, idA, freed[0])
	assert.Equal(t, 1, incoming, "exactly one EventIncoming for the matched response (the correlation miss does not count)")
}

func TestPushRequestDefer_TimerPromotion(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 0, time.Second, 3)
	tr := &fakeTransport{}
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
	)

	_, err := e.PushRequestDefer(ocpp16.MessageDataTransfer, nil, false, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, e.CountPendingRequests())

	clock.set(5)
	require.NoError(t, e.Step(5))
	assert.Equal(t, 0, tr.sentCount(), "a deferred message must not transmit before its timer fires")

	clock.set(10)
	require.NoError(t, e.Step(10))
	assert.Equal(t, 0, tr.sentCount(), "timer promotion runs after the transmit phase, so the due message only reaches ready this step")

	clock.set(11)
	require.NoError(t, e.Step(11))
	assert.Equal(t, 1, tr.sentCount(), "the promoted message must transmit on the next step")
}

func TestDropPendingType(t *testing.T) {
	clock := &fakeClock{}
	store := newTestStore(t, 0, time.Second, 3)
	tr := &fakeTransport{}
	e := New(
		WithClock(clock),
		WithTransport(tr),
		WithConfigStore(store),
		WithIDGenerator(&fakeIDGen{}),
	)

	_, err := e.PushRequest(ocpp16.MessageDataTransfer, nil, false)
	require.NoError(t, err)
	_, err = e.PushRequest(ocpp16.MessageDataTransfer, nil, false)
	require.NoError(t, err)
	_, err = e.PushRequest(ocpp16.MessageHeartbeat, nil, false)
	require.NoError(t, err)

	n := e.DropPendingType(ocpp16.MessageDataTransfer)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, e.CountPendingRequests())
}
