package queue

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// silentBroker accepts TCP connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
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
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublisher_SilentBrokerIsBounded(t *testing.T) {
	p := NewPublisher(silentBroker(t), "", zap.NewNop())
	p.DialTimeout = 200 * time.Millisecond
	defer p.Close()

	start := time.Now()
	err := p.Publish(context.Background(), sampleEvent())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	// Further events fail fast while the publisher backs off.
	start = time.Now()
	err = p.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPublisher_DialHonoursContextDeadline(t *testing.T) {
	p := NewPublisher(silentBroker(t), "", zap.NewNop())
	p.DialTimeout = time.Minute
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Publish(ctx, sampleEvent())

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublisher_ConcurrentPublishesDoNotQueueOnDial(t *testing.T) {
	p := NewPublisher(silentBroker(t), "", zap.NewNop())
	p.DialTimeout = 300 * time.Millisecond
	defer p.Close()

	start := time.Now()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Error(t, p.Publish(context.Background(), sampleEvent()))
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 2*time.Second)
}
