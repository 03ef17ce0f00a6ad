package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// チャネルに書き込まれるタッチレコードのイベントタイプ
const (
	EventReleased         uint16 = 0 // タッチの解放
	EventStart            uint16 = 1 // タッチの開始
	EventDrag             uint16 = 2 // タッチ位置の移動
	EventChangeResolution uint16 = 3 // 軸の最大値と解像度の変更
)

// RecordLength はワイヤ上の1レコードの固定長（バイト）
const RecordLength = 8

// ErrInvalidLength はバッチ長がレコード長の倍数でない場合に返される
var ErrInvalidLength = errors.New("バッチ長がレコード長(8バイト)の倍数ではありません")

// Record はチャネルから受信した1件のタッチレコードを表す構造体
//
// EventChangeResolution の場合はフィールドの意味が変わる:
// X/Yは各軸の新しい最大値、PointerKeyは両軸共通の解像度を運ぶ
type Record struct {
	X          uint16 // X座標
	Y          uint16 // Y座標
	PointerKey uint16 // 外部のポインタ識別子
	EventType  uint16 // イベントタイプ
}

// IsTouch はスロット状態に作用するレコードかどうかを返す
func (r Record) IsTouch() bool {
	return r.EventType != EventChangeResolution
}

// DecodeRecord はレコード1件分のバイト列をデコードする
//
// 純粋なデコードであり副作用もエラーも持たない。呼び出し側が
// len(buf) >= RecordLength を保証すること
func DecodeRecord(buf []byte) Record {
	return Record{
		X:          binary.LittleEndian.Uint16(buf[0:2]),
		Y:          binary.LittleEndian.Uint16(buf[2:4]),
		PointerKey: binary.LittleEndian.Uint16(buf[4:6]),
		EventType:  binary.LittleEndian.Uint16(buf[6:8]),
	}
}

// DecodeBatch はバッファ全体をレコード列にデコードする
//
// 長さがRecordLengthの倍数でない場合はErrInvalidLengthを返し、
// 1件もデコードしない。長さ0のバッファは有効で空のバッチとなる
func DecodeBatch(buf []byte) ([]Record, error) {
	if len(buf)%RecordLength != 0 {
		return nil, fmt.Errorf("%w: len=%d", ErrInvalidLength, len(buf))
	}

	count := len(buf) / RecordLength
	records := make([]Record, count)
	for i := 0; i < count; i++ {
		records[i] = DecodeRecord(buf[i*RecordLength:])
	}
	return records, nil
}

// AppendRecord はレコードをワイヤ形式でdstに追記する
func AppendRecord(dst []byte, r Record) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, r.X)
	dst = binary.LittleEndian.AppendUint16(dst, r.Y)
	dst = binary.LittleEndian.AppendUint16(dst, r.PointerKey)
	dst = binary.LittleEndian.AppendUint16(dst, r.EventType)
	return dst
}
