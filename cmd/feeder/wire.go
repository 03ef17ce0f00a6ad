package main

import (
	"bytes"
	"encoding/binary"

	"github.com/lunixbochs/struc"
)

// ブリッジのチャネルが受け付けるイベントタイプ
const (
	eventReleased         = 0
	eventStart            = 1
	eventDrag             = 2
	eventChangeResolution = 3
)

// wireRecord はチャネルへ送る8バイトのタッチレコード
type wireRecord struct {
	X          uint16 `struc:"uint16,little"`
	Y          uint16 `struc:"uint16,little"`
	PointerKey uint16 `struc:"uint16,little"`
	EventType  uint16 `struc:"uint16,little"`
}

// packFrame はレコード列を長さプレフィックス付きフレームへ変換する
//
// フレームは「u32リトルエンディアンのペイロード長 + レコード列」
func packFrame(records []wireRecord) ([]byte, error) {
	var payload bytes.Buffer
	for i := range records {
		if err := struc.PackWithOptions(&payload, &records[i], &struc.Options{Order: binary.LittleEndian}); err != nil {
			return nil, err
		}
	}

	frame := binary.LittleEndian.AppendUint32(nil, uint32(payload.Len()))
	return append(frame, payload.Bytes()...), nil
}
