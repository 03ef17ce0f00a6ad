package touch

import (
	"fmt"
	"sync/atomic"

	"github.com/char5742/toccami-bridge/internal/protocol"
)

// Sink は仮想マルチタッチデバイス（外部コラボレータ）への窓口となる
// インターフェース
//
// EmitFrameは1回のWriteにつき必ず1回だけ呼ばれ、そのバッチで
// 変化したスロットの遷移のみを受け取る
type Sink interface {
	// ConfigureAxes は軸の範囲と解像度を再設定する
	ConfigureAxes(cfg AxisConfig) error
	// EmitFrame は同期済みフレーム1件をデバイスへ反映する
	EmitFrame(frame []SlotTransition) error
	Close() error
}

// Status はPadの診断用スナップショット
//
// 直近にコミットされたフレーム時点の状態を表す（フレーム1件につき
// スナップショット1件）
type Status struct {
	Opens       uint64     `json:"opens"`
	Frames      uint64     `json:"frames"`
	ActiveSlots int        `json:"active_slots"`
	Axis        AxisConfig `json:"axis"`
	Slots       []SlotInfo `json:"slots"`
}

// Pad はタッチチャネルのコア実行環境
//
// ゲート・スロットトラッカー・軸ストア・シンクを1つのコンテキストと
// して所有する。可変状態の変更はすべてゲート保持中にのみ行われる
type Pad struct {
	sink    Sink
	gate    gate
	tracker *SlotTracker
	axes    *AxisStore
	frames  atomic.Uint64
	status  atomic.Pointer[Status]
}

// NewPad はシンクと初期軸設定からPadを作成する
func NewPad(sink Sink, cfg AxisConfig) *Pad {
	p := &Pad{
		sink:    sink,
		tracker: NewSlotTracker(),
		axes:    NewAxisStore(cfg),
	}
	p.status.Store(&Status{Axis: cfg})
	return p
}

// Open はチャネルの排他取得を試みる
//
// 既に保持されている場合は待たずにErrBusyを返す
func (p *Pad) Open() (*Session, error) {
	if !p.gate.tryAcquire() {
		return nil, ErrBusy
	}
	return &Session{pad: p}, nil
}

// OpenCount は累計オープン回数（診断用）を返す
func (p *Pad) OpenCount() uint64 {
	return p.gate.openCount()
}

// Status は直近にコミットされたフレーム時点のスナップショットを返す
func (p *Pad) Status() Status {
	s := *p.status.Load()
	s.Opens = p.gate.openCount()
	return s
}

// Session はチャネルを保持している1つの書き込みセッション
type Session struct {
	pad    *Pad
	closed bool
}

// Write はバッチ1件をデコードして適用し、フレーム1件をコミットする
//
// バッファ全体を先にデコードしてから適用するため、長さ検証の失敗は
// 完全にアトミックで、途中適用は発生しない。成功時はlen(buf)を返す
func (s *Session) Write(buf []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	records, err := protocol.DecodeBatch(buf)
	if err != nil {
		return 0, err
	}

	p := s.pad

	// バッチ内の遷移は識別子ごとに後勝ちで集約する
	// （フレーム内の並びは最初に現れたレコード順を保つ）。
	// スロットではなく識別子を単位にすることで、バッチ内で解放された
	// スロットが別の識別子に再利用されても解放遷移は失われない
	var frame []SlotTransition
	byKey := make(map[uint16]int)

	for _, rec := range records {
		if rec.EventType == protocol.EventChangeResolution {
			// 解像度変更は同じバッチの後続レコードより先に反映する。
			// ストアの更新はシンクが受理した後に行う
			cfg := ResolutionConfig(rec.X, rec.Y, rec.PointerKey)
			if err := p.sink.ConfigureAxes(cfg); err != nil {
				return 0, fmt.Errorf("軸設定の反映に失敗しました: %w", err)
			}
			p.axes.Set(cfg)
			continue
		}

		tr, ok := p.tracker.Apply(rec)
		if !ok {
			continue
		}
		if i, seen := byKey[rec.PointerKey]; seen {
			frame[i] = tr
		} else {
			byKey[rec.PointerKey] = len(frame)
			frame = append(frame, tr)
		}
	}

	// バッチで触れられなかったスロットは再報告しない
	if err := p.sink.EmitFrame(frame); err != nil {
		return 0, fmt.Errorf("フレームのコミットに失敗しました: %w", err)
	}

	p.status.Store(&Status{
		Frames:      p.frames.Add(1),
		ActiveSlots: p.tracker.ActiveCount(),
		Axis:        p.axes.Config(),
		Slots:       p.tracker.Snapshot(),
	})

	return len(buf), nil
}

// Read は常に失敗する（チャネルは書き込み専用）
func (s *Session) Read(_ []byte) (int, error) {
	return 0, ErrNotReadable
}

// Close はセッションを終了しチャネルを解放する
//
// 冪等であり、2回目以降の呼び出しはno-opとなる
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pad.gate.release()
	return nil
}
