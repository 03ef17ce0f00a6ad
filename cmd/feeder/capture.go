package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kenshaw/evdev"
)

// タッチスクリーンのイベントコード
const (
	absMtSlot       = 0x2f
	absMtPositionX  = 0x35
	absMtPositionY  = 0x36
	absMtTrackingId = 0x39
)

// maxSlots は追跡するソース側スロット数の上限
const maxSlots = 16

// eventPack はSYN_REPORTで区切られた1動作ぶんのイベント列
type eventPack struct {
	devName string
	events  []*evdev.Event
}

// createEventReader はデバイスを読み取り、動作単位のパックを流す
// チャネルを返す
func createEventReader(ctx context.Context, devicePath string) (chan *eventPack, error) {
	fd, err := os.OpenFile(devicePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("デバイスを開けませんでした: %w", err)
	}

	d := evdev.Open(fd)
	devName := d.Name()
	logger.Infof("デバイスを読み取ります: %s (%s)", devName, devicePath)

	// イベントを横取りされないよう占有する
	d.Lock()

	ch := d.Poll(ctx)
	reader := make(chan *eventPack)

	go func() {
		defer d.Unlock()
		defer d.Close()
		defer close(reader)

		events := make([]*evdev.Event, 0)
		for {
			select {
			case <-ctx.Done():
				return
			case envelope, ok := <-ch:
				if !ok {
					return
				}
				if envelope.Type == evdev.SyncReport {
					reader <- &eventPack{devName: devName, events: events}
					events = make([]*evdev.Event, 0)
				} else {
					events = append(events, &envelope.Event)
				}
			}
		}
	}()

	return reader, nil
}

// slotPoint はソース側1スロットの状態
type slotPoint struct {
	active  bool
	started bool
	ended   bool
	moved   bool
	x, y    int32
}

// mtTranslator はtype-Bマルチタッチのイベント列をチャネルの
// レコード列へ変換する
//
// スロット番号をそのままポインタキーとして使う。ブリッジ側が
// キーからスロットを割り当て直すため、番号の一致は要求されない
type mtTranslator struct {
	prof        *profile
	currentSlot int32
	points      [maxSlots]slotPoint
}

func newMtTranslator(prof *profile) *mtTranslator {
	return &mtTranslator{prof: prof}
}

// translate はパック1件をレコード列へ変換する
func (t *mtTranslator) translate(pack *eventPack) []wireRecord {
	for _, event := range pack.events {
		if event.Type != evdev.EventAbsolute {
			continue
		}

		switch event.Code {
		case absMtSlot:
			if event.Value >= 0 && event.Value < maxSlots {
				t.currentSlot = event.Value
			}

		case absMtTrackingId:
			p := &t.points[t.currentSlot]
			if event.Value >= 0 {
				p.active = true
				p.started = true
			} else if p.active {
				p.active = false
				p.ended = true
			}

		case absMtPositionX:
			p := &t.points[t.currentSlot]
			p.x = event.Value
			p.moved = true

		case absMtPositionY:
			p := &t.points[t.currentSlot]
			p.y = event.Value
			p.moved = true
		}
	}

	records := make([]wireRecord, 0)
	for slot := range t.points {
		p := &t.points[slot]

		switch {
		case p.ended:
			records = append(records, wireRecord{
				PointerKey: uint16(slot),
				EventType:  eventReleased,
			})
		case p.started:
			records = append(records, wireRecord{
				X:          t.prof.scaleX(p.x),
				Y:          t.prof.scaleY(p.y),
				PointerKey: uint16(slot),
				EventType:  eventStart,
			})
		case p.active && p.moved:
			records = append(records, wireRecord{
				X:          t.prof.scaleX(p.x),
				Y:          t.prof.scaleY(p.y),
				PointerKey: uint16(slot),
				EventType:  eventDrag,
			})
		}

		p.started = false
		p.ended = false
		p.moved = false
	}

	return records
}
