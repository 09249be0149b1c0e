// Command sse_load opens many concurrent dashboard subscriptions, either the
// trade SSE stream or the snapshot websocket, and reports delivery counts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type counters struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	events      atomic.Int64
}

func (c *counters) fields(elapsed time.Duration) []zap.Field {
	return []zap.Field{
		zap.Int64("connected", c.connected.Load()),
		zap.Int64("connect_errs", c.connectErrs.Load()),
		zap.Int64("stream_errs", c.streamErrs.Load()),
		zap.Int64("events", c.events.Load()),
		zap.Duration("elapsed", elapsed.Truncate(time.Second)),
	}
}

func main() {
	var (
		targetURL   string
		mode        string
		connections int
		duration    time.Duration
		rampUp      time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8080/trades/stream", "stream URL (ws:// for -mode ws)")
	flag.StringVar(&mode, "mode", "sse", "subscription kind: sse or ws")
	flag.IntVar(&connections, "conns", 500, "number of concurrent subscriptions")
	flag.DurationVar(&duration, "dur", time.Minute, "test duration, 0 runs until interrupted")
	flag.DurationVar(&rampUp, "ramp", 0, "spread connection starts across this window")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if connections <= 0 {
		logger.Fatal("invalid connection count", zap.Int("conns", connections))
	}
	if mode != "sse" && mode != "ws" {
		logger.Fatal("unknown mode", zap.String("mode", mode))
	}
	if rampUp == 0 && connections > 100 {
		// 1s per 500 connections keeps the accept queue short
		rampUp = max(time.Duration(connections/500)*time.Second, time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	logger.Info("starting load",
		zap.String("url", targetURL),
		zap.String("mode", mode),
		zap.Int("conns", connections),
		zap.Duration("duration", duration),
		zap.Duration("ramp", rampUp))

	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	client := &http.Client{Transport: &http.Transport{
		MaxConnsPerHost:     connections + 100,
		MaxIdleConnsPerHost: connections + 100,
		DisableCompression:  true,
		DialContext:         dialer.DialContext,
	}}
	wsDialer := &websocket.Dialer{NetDialContext: dialer.DialContext, HandshakeTimeout: 10 * time.Second}

	var (
		c     counters
		wg    sync.WaitGroup
		start = time.Now()
		step  = rampUp / time.Duration(connections)
	)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("status", c.fields(time.Since(start))...)
			}
		}
	}()

	for i := 0; i < connections && ctx.Err() == nil; i++ {
		if i > 0 && step > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(step):
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if mode == "ws" {
				subscribeWS(ctx, wsDialer, targetURL, &c)
				return
			}
			subscribeSSE(ctx, client, targetURL, &c)
		}()
	}

	wg.Wait()

	elapsed := max(time.Since(start), time.Millisecond)
	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d events=%d elapsed=%s events/s=%.2f\n",
		c.connected.Load(), c.connectErrs.Load(), c.streamErrs.Load(), c.events.Load(),
		elapsed.Truncate(time.Millisecond), float64(c.events.Load())/elapsed.Seconds())
	if c.connected.Load() == 0 {
		os.Exit(1)
	}
}

// subscribeSSE counts data lines. Heartbeat comments are ignored.
func subscribeSSE(ctx context.Context, client *http.Client, url string, c *counters) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.connectErrs.Add(1)
		return
	}

	c.connected.Add(1)
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				c.streamErrs.Add(1)
			}
			return
		}
		if strings.HasPrefix(line, "data:") {
			c.events.Add(1)
		}
	}
}

// subscribeWS counts snapshot messages.
func subscribeWS(ctx context.Context, dialer *websocket.Dialer, url string, c *counters) {
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.connectErrs.Add(1)
		return
	}
	defer conn.Close()

	c.connected.Add(1)
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() == nil {
				c.streamErrs.Add(1)
			}
			return
		}
		c.events.Add(1)
	}
}
