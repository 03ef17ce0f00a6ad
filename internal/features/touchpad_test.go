package features

import (
	"testing"

	"github.com/char5742/toccami-bridge/internal/consts"
	"github.com/char5742/toccami-bridge/internal/touch"
	"github.com/char5742/toccami-bridge/internal/types"
)

func codesOf(events []types.Event) []uint16 {
	codes := make([]uint16, len(events))
	for i, ev := range events {
		codes[i] = ev.Code
	}
	return codes
}

func TestRenderDownFrame(t *testing.T) {
	var r frameRenderer

	events := r.render([]touch.SlotTransition{
		{Slot: 0, TrackingID: 1, Active: true, X: 100, Y: 50},
	})

	want := []struct {
		typ   uint16
		code  uint16
		value int32
	}{
		{consts.Abs, consts.AbsMtSlot, 0},
		{consts.Abs, consts.AbsMtTrackingId, 1},
		{consts.Abs, consts.AbsMtPositionX, 100},
		{consts.Abs, consts.AbsMtPositionY, 50},
		{consts.Key, consts.BtnTouch, 1},
		{consts.Key, consts.BtnToolFinger, 1},
		{consts.Syn, consts.SynReport, 0},
	}
	if len(events) != len(want) {
		t.Fatalf("render produced %d events (%v), want %d", len(events), codesOf(events), len(want))
	}
	for i, w := range want {
		if events[i].Type != w.typ || events[i].Code != w.code || events[i].Value != w.value {
			t.Errorf("events[%d] = {%d %d %d}, want {%d %d %d}",
				i, events[i].Type, events[i].Code, events[i].Value, w.typ, w.code, w.value)
		}
	}
}

func TestRenderMoveOmitsTrackingID(t *testing.T) {
	var r frameRenderer
	r.render([]touch.SlotTransition{{Slot: 2, TrackingID: 7, Active: true, X: 1, Y: 1}})

	events := r.render([]touch.SlotTransition{{Slot: 2, TrackingID: 7, Active: true, X: 5, Y: 6}})
	for _, ev := range events {
		if ev.Type == consts.Abs && ev.Code == consts.AbsMtTrackingId {
			t.Error("move frame re-announced AbsMtTrackingId, want position update only")
		}
		if ev.Type == consts.Key {
			t.Errorf("move frame emitted key event code=%d, touch state did not change", ev.Code)
		}
	}
}

func TestRenderUpReleasesKeysOnlyWhenLastFinger(t *testing.T) {
	var r frameRenderer
	r.render([]touch.SlotTransition{
		{Slot: 0, TrackingID: 1, Active: true, X: 0, Y: 0},
		{Slot: 1, TrackingID: 2, Active: true, X: 5, Y: 5},
	})

	// 1本目を離してもBTN_TOUCHは維持される
	events := r.render([]touch.SlotTransition{{Slot: 0, TrackingID: -1, Active: false}})
	for _, ev := range events {
		if ev.Type == consts.Key {
			t.Errorf("key event emitted while slot 1 still touching: code=%d value=%d", ev.Code, ev.Value)
		}
	}

	// 最後の指を離すとBTN_TOUCH/BTN_TOOL_FINGERが0になる
	events = r.render([]touch.SlotTransition{{Slot: 1, TrackingID: -1, Active: false}})
	released := 0
	for _, ev := range events {
		if ev.Type == consts.Key && ev.Value == 0 {
			released++
		}
	}
	if released != 2 {
		t.Errorf("key releases = %d, want 2 (BtnTouch and BtnToolFinger)", released)
	}
}

// 同一フレーム内の解放→再割り当ては、追跡ID -1 と新しい追跡IDの
// 両方を順番どおりに通知する
func TestRenderReleaseThenReuseSlotInOneFrame(t *testing.T) {
	var r frameRenderer
	r.render([]touch.SlotTransition{{Slot: 0, TrackingID: 1, Active: true, X: 10, Y: 10}})

	events := r.render([]touch.SlotTransition{
		{Slot: 0, TrackingID: -1, Active: false},
		{Slot: 0, TrackingID: 2, Active: true, X: 20, Y: 20},
	})

	var ids []int32
	for _, ev := range events {
		if ev.Type == consts.Abs && ev.Code == consts.AbsMtTrackingId {
			ids = append(ids, ev.Value)
		}
	}
	if len(ids) != 2 || ids[0] != -1 || ids[1] != 2 {
		t.Errorf("tracking id sequence = %v, want [-1 2]", ids)
	}

	// 接地は途切れないのでキーイベントは出ない
	for _, ev := range events {
		if ev.Type == consts.Key {
			t.Errorf("key event emitted during slot reuse: code=%d value=%d", ev.Code, ev.Value)
		}
	}
}

func TestRenderEmptyFrameIsBareSync(t *testing.T) {
	var r frameRenderer
	events := r.render(nil)
	if len(events) != 1 || events[0].Type != consts.Syn {
		t.Errorf("render(nil) = %v, want single SYN_REPORT", events)
	}
}

func TestRenderIgnoresOutOfRangeSlots(t *testing.T) {
	var r frameRenderer
	events := r.render([]touch.SlotTransition{{Slot: touch.MaxTouches, Active: true}})
	if len(events) != 1 {
		t.Errorf("render(out-of-range slot) produced %d events, want bare sync", len(events))
	}
}
