package audio

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const frameMagic uint32 = 0x4F505530
const headerSize = 16

const defaultHost = "127.0.0.1"
const defaultPort = 9000

const keepaliveIdle = 10 * time.Second
const keepaliveInterval = 3 * time.Second
const keepaliveCount = 3

const sendRecvTimeout = 1500 * time.Millisecond
const reconnectDelay = 1 * time.Second

// Transport is a reconnectable framed socket carrying encoded audio
// payloads to the control host.
type Transport struct {
	conn net.Conn
	seq  uint32
}

// transportAddr resolves host/port from the environment, falling back to
// 127.0.0.1:9000.
func transportAddr() (string, int) {
	host := os.Getenv("AUDIO_TCP_HOST")
	if host == "" {
		host = defaultHost
	}
	port := defaultPort
	if raw := os.Getenv("AUDIO_TCP_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			port = p
		}
	}
	return host, port
}

// Connect dials the audio host, applies keepalive and timeouts, and
// retries with a fixed backoff forever while running reports true. It
// returns nil, nil if running flips false before a connection succeeds.
func Connect(running func() bool) (*Transport, error) {
	host, port := transportAddr()
	addr := fmt.Sprintf("%s:%d", host, port)

	for running() {
		conn, err := net.DialTimeout("tcp", addr, sendRecvTimeout)
		if err != nil {
			sleepCancelable(reconnectDelay, running)
			continue
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			tcpConn.SetKeepAlive(true)
			tcpConn.SetKeepAlivePeriod(keepaliveIdle)
		}

		return &Transport{conn: conn}, nil
	}
	return nil, nil
}

func sleepCancelable(d time.Duration, running func() bool) {
	const step = 100 * time.Millisecond
	elapsed := time.Duration(0)
	for elapsed < d {
		if !running() {
			return
		}
		time.Sleep(step)
		elapsed += step
	}
}

// SendFrame writes one framed payload: a fixed 16-byte header (magic,
// sequence, sample rate, channels, payload length in network order)
// followed by the payload, reissuing writes until the whole message is on
// the wire or a send fails.
func (t *Transport) SendFrame(sampleRate uint32, channels uint16, payload []byte) error {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], frameMagic)
	binary.BigEndian.PutUint32(header[4:8], t.seq)
	binary.BigEndian.PutUint32(header[8:12], sampleRate)
	binary.BigEndian.PutUint16(header[12:14], channels)
	binary.BigEndian.PutUint16(header[14:16], uint16(len(payload)))

	t.conn.SetWriteDeadline(time.Now().Add(sendRecvTimeout))
	if err := writeFull(t.conn, header); err != nil {
		return fmt.Errorf("audio: writing header: %w", err)
	}
	if err := writeFull(t.conn, payload); err != nil {
		return fmt.Errorf("audio: writing payload: %w", err)
	}

	t.seq++
	return nil
}

func writeFull(conn net.Conn, buf []byte) error {
	for len(buf) > 0 {
		n, err := conn.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// Close tears down the underlying connection.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
