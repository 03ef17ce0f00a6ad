package touch

import "github.com/char5742/toccami-bridge/internal/protocol"

// MaxTouches は同時に追跡できるタッチ数（スロット数）
const MaxTouches = 10

// SlotTransition は1スロット分の状態遷移を表す
//
// Activeがtrueの場合は指の接地と位置を、falseの場合は指の解放を表し、
// 解放時のTrackingIDは-1となる
type SlotTransition struct {
	Slot       int   `json:"slot"`
	TrackingID int32 `json:"tracking_id"`
	Active     bool  `json:"active"`
	X          int32 `json:"x"`
	Y          int32 `json:"y"`
}

// SlotInfo は診断用のスロット状態スナップショット
type SlotInfo struct {
	Slot       int    `json:"slot"`
	PointerKey uint16 `json:"pointer_key"`
	Active     bool   `json:"active"`
	X          int32  `json:"x"`
	Y          int32  `json:"y"`
}

type slotState struct {
	bound      bool
	key        uint16
	active     bool
	x, y       int32
	trackingID int32
}

// SlotTracker は外部のポインタ識別子を有限のスロットプールへ対応付け、
// 各スロットの接地状態と最終報告位置を追跡する
//
// 同期はチャネルのロックに委ねる。プールが満杯のときに現れた新しい
// 識別子は黙って破棄する（既存スロットの追い出しは行わない）
type SlotTracker struct {
	slots          [MaxTouches]slotState
	nextTrackingID int32
}

// NewSlotTracker は全スロットが空き状態のトラッカーを作成する
func NewSlotTracker() *SlotTracker {
	return &SlotTracker{}
}

// Apply はデコード済みのタッチレコード1件をスロット状態へ適用する
//
// 状態が変化した場合はそのスロットの遷移とtrueを返す。プール満杯で
// 割り当てられなかった場合と、未追跡の識別子の解放はともに遷移なしの
// no-opとなる
func (t *SlotTracker) Apply(rec protocol.Record) (SlotTransition, bool) {
	switch rec.EventType {
	case protocol.EventStart, protocol.EventDrag:
		idx := t.slotByKey(rec.PointerKey)
		if idx < 0 {
			idx = t.freeSlot()
			if idx < 0 {
				// プール満杯: 新しい識別子は破棄する
				return SlotTransition{}, false
			}
			t.slots[idx].bound = true
			t.slots[idx].key = rec.PointerKey
			t.slots[idx].trackingID = t.nextTrackingID
			t.nextTrackingID++
		}

		s := &t.slots[idx]
		s.active = true
		s.x = int32(rec.X)
		s.y = int32(rec.Y)
		return SlotTransition{
			Slot:       idx,
			TrackingID: s.trackingID,
			Active:     true,
			X:          s.x,
			Y:          s.y,
		}, true

	default:
		// Start/Drag以外はすべて解放として扱う（未知のコードを含む）
		idx := t.slotByKey(rec.PointerKey)
		if idx < 0 {
			return SlotTransition{}, false
		}

		s := &t.slots[idx]
		s.bound = false
		s.active = false
		return SlotTransition{
			Slot:       idx,
			TrackingID: -1,
			Active:     false,
			X:          s.x,
			Y:          s.y,
		}, true
	}
}

// slotByKey は識別子が割り当てられているスロットを線形探索する
func (t *SlotTracker) slotByKey(key uint16) int {
	for i := range t.slots {
		if t.slots[i].bound && t.slots[i].key == key {
			return i
		}
	}
	return -1
}

// freeSlot は最小インデックスの空きスロットを返す
func (t *SlotTracker) freeSlot() int {
	for i := range t.slots {
		if !t.slots[i].bound {
			return i
		}
	}
	return -1
}

// ActiveCount は接地中のスロット数を返す
func (t *SlotTracker) ActiveCount() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].active {
			n++
		}
	}
	return n
}

// Snapshot は割り当て済みスロットの診断用スナップショットを返す
func (t *SlotTracker) Snapshot() []SlotInfo {
	var infos []SlotInfo
	for i := range t.slots {
		if !t.slots[i].bound {
			continue
		}
		infos = append(infos, SlotInfo{
			Slot:       i,
			PointerKey: t.slots[i].key,
			Active:     t.slots[i].active,
			X:          t.slots[i].x,
			Y:          t.slots[i].y,
		})
	}
	return infos
}
