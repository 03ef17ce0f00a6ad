package touch

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrBusy は他のセッションがチャネルを保持している場合に返される
var ErrBusy = errors.New("チャネルは他のセッションに使用されています")

// ErrClosed はクローズ済みのセッションへの書き込みで返される
var ErrClosed = errors.New("セッションは既にクローズされています")

// ErrNotReadable は書き込み専用チャネルからの読み取りで返される
var ErrNotReadable = errors.New("チャネルは書き込み専用です")

// gate はチャネル全体を守る非ブロッキングの単一所有ロック
//
// 待ち行列も公平性もなく、保持中の取得は即座に失敗する。
// opensは診断用のオープン回数カウンタ
type gate struct {
	mu    sync.Mutex
	opens atomic.Uint64
}

func (g *gate) tryAcquire() bool {
	if !g.mu.TryLock() {
		return false
	}
	g.opens.Add(1)
	return true
}

func (g *gate) release() {
	g.mu.Unlock()
}

func (g *gate) openCount() uint64 {
	return g.opens.Load()
}
