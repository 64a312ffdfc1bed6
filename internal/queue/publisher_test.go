package queue

import (
    "context"
    "net"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.  It returns the amqp URL and the number of accepted dials.
func silentBroker(t *testing.T) (string, *atomic.Int32) {
    t.Helper()
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)

    var (
        accepted atomic.Int32
        mu       sync.Mutex
        conns    []net.Conn
    )
    go func() {
        for {
            c, err := ln.Accept()
            if err != nil {
                return
            }
            accepted.Add(1)
            mu.Lock()
            conns = append(conns, c)
            mu.Unlock()
        }
    }()
    t.Cleanup(func() {
        _ = ln.Close()
        mu.Lock()
        defer mu.Unlock()
        for _, c := range conns {
            _ = c.Close()
        }
    })
    return "amqp://guest:guest@" + ln.Addr().String() + "/", &accepted
}

func TestPublishGivesUpWithRequestContext(t *testing.T) {
    url, _ := silentBroker(t)
    p := newPublisher(url, "pestiq.activity")

    ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
    defer cancel()
    start := time.Now()
    err := p.Publish(ctx, NewEvent(EventUserRegistered, 1, 1))

    require.Error(t, err)
    assert.Less(t, time.Since(start), time.Second)
}

func TestPublishBacksOffAfterFailedDial(t *testing.T) {
    url, accepted := silentBroker(t)
    p := newPublisher(url, "pestiq.activity")
    p.dialTimeout = 200 * time.Millisecond
    now := time.Now()
    p.now = func() time.Time { return now }

    require.Error(t, p.Publish(context.Background(), NewEvent(EventUserRegistered, 1, 1)))
    require.Eventually(t, func() bool { return accepted.Load() == 1 }, time.Second, 10*time.Millisecond)

    start := time.Now()
    err := p.Publish(context.Background(), NewEvent(EventUserActivated, 1, 1))
    assert.ErrorIs(t, err, ErrBrokerUnavailable)
    assert.Less(t, time.Since(start), 50*time.Millisecond)
    assert.Equal(t, int32(1), accepted.Load())

    now = now.Add(defaultRetryAfter + time.Second)
    require.Error(t, p.Publish(context.Background(), NewEvent(EventUserActivated, 1, 1)))
    assert.Eventually(t, func() bool { return accepted.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestPublishWaiterHonoursContext(t *testing.T) {
    p := newPublisher("amqp://127.0.0.1:1/", "pestiq.activity")
    p.lock <- struct{}{} // another publish in flight

    ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
    defer cancel()
    err := p.Publish(ctx, NewEvent(EventPhotoUploaded, 2, 3))
    assert.ErrorIs(t, err, context.DeadlineExceeded)
}
