package control

import (
	"testing"
	"time"
)

func TestChannelRoundTripOverInproc(t *testing.T) {
	endpoint := "inproc://control-test"

	received := make(chan []byte, 1)
	server, err := Start(endpoint, func(msg []byte) {
		received <- msg
	}, nil)
	if err != nil {
		t.Fatalf("Start(server) error = %v", err)
	}
	defer server.Close()

	client, err := Start(endpoint, func([]byte) {}, nil)
	if err != nil {
		t.Fatalf("Start(client) error = %v", err)
	}
	defer client.Close()

	if err := client.Send([]byte(`{"rf_mode":"fm"}`)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != `{"rf_mode":"fm"}` {
			t.Fatalf("received = %q, want the sent payload", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
