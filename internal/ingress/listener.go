package ingress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/char5742/toccami-bridge/internal/protocol"
	"github.com/char5742/toccami-bridge/internal/touch"
)

// ErrIOFault はフレームのバイト列を転送路から取り出せなかった場合に
// 返される（バッチがコアへ渡る前に検出される）
var ErrIOFault = errors.New("フレームの読み取りが途中で失敗しました")

// MaxFrameSize は1フレームの最大ペイロード長
const MaxFrameSize = 64 * 1024

// Listener はチャネルのソケットフロントエンド
//
// 1接続が1セッションに対応する。先着の接続がチャネルを保持し、
// 後続の接続にはbusyを応答して切断する。ストリームは
// 「u32リトルエンディアンのペイロード長 + ペイロード」のフレーム列で、
// 1フレームがコアへの1回の書き込みになる
type Listener struct {
	pad       *touch.Pad
	ln        net.Listener
	closeOnce sync.Once
}

// Listen は指定のネットワーク上でチャネルの受け付けを開始する
func Listen(network, addr string, pad *touch.Pad) (*Listener, error) {
	if network == "unix" {
		// 前回の異常終了で残ったソケットファイルを取り除く
		_ = os.Remove(addr)
	}

	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("チャネルソケットの作成に失敗しました: %w", err)
	}

	l := &Listener{pad: pad, ln: ln}
	go l.acceptLoop()
	return l, nil
}

// Addr は待ち受けアドレスを返す
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close は受け付けを終了する
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.ln.Close()
	})
	return err
}

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			// Close済みのリスナーからのエラーは終了の合図
			return
		}
		go l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	session, err := l.pad.Open()
	if errors.Is(err, touch.ErrBusy) {
		fmt.Fprintf(conn, "busy\n")
		return
	}
	defer session.Close()

	log.Printf("チャネルをオープンしました: %s (累計%d回)", conn.RemoteAddr(), l.pad.OpenCount())
	fmt.Fprintf(conn, "ready\n")

	for {
		payload, err := readFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Printf("チャネルをクローズしました: %s", conn.RemoteAddr())
				return
			}
			// フレーム途中の欠落。コアには一切適用されていない
			log.Printf("チャネル転送エラー: %v", err)
			return
		}

		n, err := session.Write(payload)
		if err != nil {
			if errors.Is(err, protocol.ErrInvalidLength) {
				// 完全に拒否されたバッチ。セッションは継続できる
				fmt.Fprintf(conn, "err invalid-argument\n")
				continue
			}
			log.Printf("バッチ適用エラー: %v", err)
			fmt.Fprintf(conn, "err internal\n")
			return
		}

		fmt.Fprintf(conn, "ok %d\n", n)
	}
}

// readFrame は長さプレフィックス付きフレーム1件を読み取る
//
// ストリーム境界での正常終了はio.EOFを返す。フレーム途中で
// バイト列が途切れた場合はErrIOFaultを返す
func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrIOFault, err)
	}

	size := binary.LittleEndian.Uint32(header)
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: フレーム長%dが上限を超えています", ErrIOFault, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFault, err)
	}
	return payload, nil
}

// WriteFrame はフレーム1件をワイヤ形式で書き込む（プロデューサ用）
func WriteFrame(w io.Writer, payload []byte) error {
	header := binary.LittleEndian.AppendUint32(nil, uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
