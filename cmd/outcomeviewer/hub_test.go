package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/models"
)

func TestHub_BroadcastsOutcome(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(newMux(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	sent := models.CallOutcome{
		EventType:     models.EventTypeCallOutcome,
		InteractionID: "int-1",
		Label:         classifier.LabelSuccess,
		Reason:        classifier.ReasonCompletion,
		FinalScore:    4,
		Trigger:       models.TriggerEnded,
	}
	assert.True(t, hub.Publish(sent))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.CallOutcome
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, sent.InteractionID, got.InteractionID)
	assert.Equal(t, sent.Label, got.Label)
	assert.Equal(t, sent.FinalScore, got.FinalScore)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_ConnectionsAfterStopDoNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := newHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	srv := httptest.NewServer(newMux(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The server side is closed straight away instead of waiting on the hub.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "expected close, got timeout")
	assert.Equal(t, 0, hub.Clients())

	unregistered := make(chan struct{})
	go func() {
		hub.Unregister(conn)
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	hub := newHub()
	for i := 0; i < cap(hub.broadcast); i++ {
		require.True(t, hub.Publish(models.CallOutcome{}))
	}
	assert.False(t, hub.Publish(models.CallOutcome{InteractionID: "overflow"}))
}

func TestMux_ServesIndex(t *testing.T) {
	srv := httptest.NewServer(newMux(newHub()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
