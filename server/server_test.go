//go:build linux
// +build linux

// File: server/server_test.go
// Author: momentics <momentics@gmail.com>
//
// Integration tests driving the echo server over real TCP connections.

package server_test

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-echo/server"
)

// startEcho runs a server on a kernel-assigned port and tears it down
// with the test. It returns the server and its dial address.
func startEcho(t *testing.T, opts ...server.Option) (*server.Server, string) {
	t.Helper()
	opts = append([]server.Option{
		server.WithPort(0),
		server.WithoutSignalHandler(),
	}, opts...)
	srv, err := server.New(opts...)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	t.Cleanup(func() {
		srv.StopAfter(0)
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
			return
		}
		assert.NoError(t, srv.Close())
	})
	return srv, fmt.Sprintf("127.0.0.1:%d", srv.Port())
}

// echoOnce sends payload, half-closes the write side, and returns
// everything received until the server closes the connection.
func echoOnce(t *testing.T, addr string, payload []byte) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(payload)
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	return got
}

func TestEcho_Identity(t *testing.T) {
	_, addr := startEcho(t)

	payload := []byte("hello\x00binary\xff\xfe\r\nworld")
	got := echoOnce(t, addr, payload)
	assert.Equal(t, payload, got)
}

func TestEcho_LargePayload(t *testing.T) {
	_, addr := startEcho(t)

	payload := bytes.Repeat([]byte("0123456789abcdef"), 128*1024) // 2 MiB
	got := echoOnce(t, addr, payload)
	require.Equal(t, len(payload), len(got))
	assert.True(t, bytes.Equal(payload, got), "echoed bytes differ from sent bytes")
}

func TestEcho_FragmentedWrites(t *testing.T) {
	_, addr := startEcho(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	fragments := [][]byte{
		[]byte("first "),
		[]byte("second "),
		{0x00, 0x01, 0x02},
		[]byte(" fourth"),
		bytes.Repeat([]byte("z"), 70000), // larger than one read buffer
	}
	var want []byte
	for _, f := range fragments {
		_, err := conn.Write(f)
		require.NoError(t, err)
		want = append(want, f...)
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, want, got, "concatenation of fragments must come back in order")
}

func TestEcho_ConnectionIndependence(t *testing.T) {
	_, addr := startEcho(t)

	// A client that aborts mid-stream must not disturb the others.
	abort, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = abort.Write([]byte("doomed"))
	require.NoError(t, err)
	require.NoError(t, abort.(*net.TCPConn).SetLinger(0))
	require.NoError(t, abort.Close())

	payloads := [][]byte{
		bytes.Repeat([]byte("A"), 50000),
		bytes.Repeat([]byte("B"), 50000),
	}
	var wg sync.WaitGroup
	results := make([][]byte, len(payloads))
	for i, p := range payloads {
		wg.Add(1)
		go func(i int, p []byte) {
			defer wg.Done()
			results[i] = echoOnce(t, addr, p)
		}(i, p)
	}
	wg.Wait()

	for i, p := range payloads {
		assert.Equal(t, p, results[i], "client %d received foreign or corrupt bytes", i)
	}
}

func TestEcho_ZeroByteConnection(t *testing.T) {
	_, addr := startEcho(t)

	got := echoOnce(t, addr, nil)
	assert.Empty(t, got, "zero-byte connection must produce zero bytes back")

	// Server must still be alive and accepting.
	assert.Equal(t, []byte("still here"), echoOnce(t, addr, []byte("still here")))
}

func TestShutdown_GraceTiming(t *testing.T) {
	srv, err := server.New(server.WithPort(0), server.WithoutSignalHandler())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	start := time.Now()
	srv.StopAfter(400 * time.Millisecond)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop within the grace window")
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond, "stop must not be immediate")
	require.NoError(t, srv.Close())
}

func TestShutdown_InFlightEchoCompletes(t *testing.T) {
	srv, err := server.New(server.WithPort(0), server.WithoutSignalHandler())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	addr := fmt.Sprintf("127.0.0.1:%d", srv.Port())

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	srv.StopAfter(1 * time.Second)

	payload := []byte("flushed before the deadline")
	_, err = conn.Write(payload)
	require.NoError(t, err)

	got := make([]byte, len(payload))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = io.ReadFull(conn, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	require.NoError(t, srv.Close())
}

func TestBindFailure_PortInUse(t *testing.T) {
	srv, _ := startEcho(t)

	second, err := server.New(server.WithPort(srv.Port()), server.WithoutSignalHandler())
	require.Error(t, err, "second bind on an occupied port must fail")
	require.Nil(t, second)
}
