package ingress

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/char5742/toccami-bridge/internal/protocol"
	"github.com/char5742/toccami-bridge/internal/touch"
)

type fakeSink struct {
	frames [][]touch.SlotTransition
}

func (s *fakeSink) ConfigureAxes(cfg touch.AxisConfig) error { return nil }

func (s *fakeSink) EmitFrame(frame []touch.SlotTransition) error {
	s.frames = append(s.frames, frame)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func startTestListener(t *testing.T) (*Listener, *fakeSink) {
	t.Helper()

	sink := &fakeSink{}
	pad := touch.NewPad(sink, touch.AxisConfig{MaxX: 1000, MaxY: 400, ResolutionX: 10, ResolutionY: 10})

	l, err := Listen("tcp", "127.0.0.1:0", pad)
	if err != nil {
		t.Fatalf("Listen error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, sink
}

func dial(t *testing.T, l *Listener) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	return line
}

func touchBatch(records ...protocol.Record) []byte {
	var buf []byte
	for _, rec := range records {
		buf = protocol.AppendRecord(buf, rec)
	}
	return buf
}

func TestListenerAcksFrames(t *testing.T) {
	l, sink := startTestListener(t)

	conn, r := dial(t, l)
	if got := readLine(t, r); got != "ready\n" {
		t.Fatalf("greeting = %q, want ready", got)
	}

	batch := touchBatch(
		protocol.Record{X: 100, Y: 200, PointerKey: 7, EventType: protocol.EventStart},
		protocol.Record{X: 110, Y: 210, PointerKey: 7, EventType: protocol.EventDrag},
	)
	if err := WriteFrame(conn, batch); err != nil {
		t.Fatalf("WriteFrame error = %v", err)
	}

	if got := readLine(t, r); got != "ok 16\n" {
		t.Errorf("ack = %q, want \"ok 16\\n\"", got)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("sink received %d frames, want 1", len(sink.frames))
	}
	if len(sink.frames[0]) != 1 {
		t.Errorf("frame has %d transitions, want 1 (last write wins)", len(sink.frames[0]))
	}
}

func TestListenerRejectsSecondConnection(t *testing.T) {
	l, _ := startTestListener(t)

	_, r1 := dial(t, l)
	if got := readLine(t, r1); got != "ready\n" {
		t.Fatalf("first connection greeting = %q, want ready", got)
	}

	_, r2 := dial(t, l)
	if got := readLine(t, r2); got != "busy\n" {
		t.Errorf("second connection greeting = %q, want busy", got)
	}
}

func TestListenerReleasesChannelOnDisconnect(t *testing.T) {
	l, _ := startTestListener(t)

	conn, r := dial(t, l)
	readLine(t, r)
	conn.Close()

	// 切断処理は非同期なので、再接続できるまで少し待つ
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn2, r2 := dial(t, l)
		line := readLine(t, r2)
		conn2.Close()
		if line == "ready\n" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("channel was not released after disconnect, last greeting = %q", line)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestListenerKeepsSessionAfterInvalidBatch(t *testing.T) {
	l, sink := startTestListener(t)

	conn, r := dial(t, l)
	readLine(t, r)

	// 8の倍数でないペイロードは完全拒否される
	if err := WriteFrame(conn, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteFrame error = %v", err)
	}
	if got := readLine(t, r); got != "err invalid-argument\n" {
		t.Fatalf("error line = %q, want invalid-argument", got)
	}
	if len(sink.frames) != 0 {
		t.Errorf("sink received %d frames after invalid batch, want 0", len(sink.frames))
	}

	// 同じ接続で正常なバッチが続けられる
	batch := touchBatch(protocol.Record{X: 1, Y: 2, PointerKey: 3, EventType: protocol.EventStart})
	if err := WriteFrame(conn, batch); err != nil {
		t.Fatalf("WriteFrame error = %v", err)
	}
	if got := readLine(t, r); got != "ok 8\n" {
		t.Errorf("ack after recovery = %q, want \"ok 8\\n\"", got)
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	// 長さ16を宣言して8バイトしか送らない
	var buf bytes.Buffer
	buf.Write([]byte{16, 0, 0, 0})
	buf.Write(make([]byte, 8))

	_, err := readFrame(&buf)
	if !errors.Is(err, ErrIOFault) {
		t.Errorf("readFrame error = %v, want ErrIOFault", err)
	}
}

func TestReadFrameShortHeader(t *testing.T) {
	_, err := readFrame(bytes.NewReader([]byte{16, 0}))
	if !errors.Is(err, ErrIOFault) {
		t.Errorf("readFrame error = %v, want ErrIOFault", err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := readFrame(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("readFrame error = %v, want io.EOF", err)
	}
}

func TestReadFrameOversized(t *testing.T) {
	header := []byte{0, 0, 0, 2} // 32MiB
	_, err := readFrame(bytes.NewReader(header))
	if !errors.Is(err, ErrIOFault) {
		t.Errorf("readFrame error = %v, want ErrIOFault", err)
	}
}

func TestWriteFrameRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	payload := touchBatch(protocol.Record{X: 5, Y: 6, PointerKey: 1, EventType: protocol.EventDrag})

	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame error = %v", err)
	}
	got, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("roundtrip payload = %v, want %v", got, payload)
	}
}
