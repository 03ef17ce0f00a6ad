package protocol

import (
	"errors"
	"testing"
)

func TestDecodeBatchRejectsPartialRecords(t *testing.T) {
	for _, n := range []int{1, 3, 7, 9, 15, 23} {
		buf := make([]byte, n)
		records, err := DecodeBatch(buf)
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("DecodeBatch(len=%d) error = %v, want ErrInvalidLength", n, err)
		}
		if records != nil {
			t.Errorf("DecodeBatch(len=%d) = %v, want nil", n, records)
		}
	}
}

func TestDecodeBatchEmpty(t *testing.T) {
	records, err := DecodeBatch(nil)
	if err != nil {
		t.Fatalf("DecodeBatch(nil) error = %v, want nil", err)
	}
	if len(records) != 0 {
		t.Errorf("DecodeBatch(nil) returned %d records, want 0", len(records))
	}
}

func TestDecodeBatchPreservesOrder(t *testing.T) {
	var buf []byte
	want := []Record{
		{X: 100, Y: 50, PointerKey: 1, EventType: EventStart},
		{X: 110, Y: 55, PointerKey: 1, EventType: EventDrag},
		{X: 0, Y: 0, PointerKey: 1, EventType: EventReleased},
	}
	for _, r := range want {
		buf = AppendRecord(buf, r)
	}

	records, err := DecodeBatch(buf)
	if err != nil {
		t.Fatalf("DecodeBatch error = %v", err)
	}
	if len(records) != len(want) {
		t.Fatalf("DecodeBatch returned %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestDecodeRecordLittleEndian(t *testing.T) {
	buf := []byte{0xe8, 0x03, 0x20, 0x03, 0x32, 0x00, 0x03, 0x00}
	got := DecodeRecord(buf)
	want := Record{X: 1000, Y: 800, PointerKey: 50, EventType: EventChangeResolution}
	if got != want {
		t.Errorf("DecodeRecord = %+v, want %+v", got, want)
	}
}

func TestRecordIsTouch(t *testing.T) {
	tests := []struct {
		eventType uint16
		want      bool
	}{
		{EventReleased, true},
		{EventStart, true},
		{EventDrag, true},
		{EventChangeResolution, false},
		{99, true}, // 未知のコードもスロットに作用する(解放扱い)
	}
	for _, tt := range tests {
		r := Record{EventType: tt.eventType}
		if got := r.IsTouch(); got != tt.want {
			t.Errorf("Record{EventType: %d}.IsTouch() = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}
