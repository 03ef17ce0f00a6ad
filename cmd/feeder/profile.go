package main

import (
	"fmt"
	"os"

	simplejson "github.com/bitly/go-simplejson"
)

// profile はソースデバイスとブリッジ側タッチパッドの座標対応を表す
//
// JSONファイルから読み込む:
//
//	{
//	  "source": {"max_x": 4095, "max_y": 4095},
//	  "target": {"max_x": 1000, "max_y": 400, "resolution": 10}
//	}
type profile struct {
	sourceMaxX int32
	sourceMaxY int32
	targetMaxX int32
	targetMaxY int32
	resolution int32
}

// defaultProfile はプロファイル未指定時の座標対応
func defaultProfile() *profile {
	return &profile{
		sourceMaxX: 4095,
		sourceMaxY: 4095,
		targetMaxX: 1000,
		targetMaxY: 400,
		resolution: 10,
	}
}

// loadProfile はJSONプロファイルを読み込む
//
// 欠けているキーはデフォルト値で補う
func loadProfile(path string) (*profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("プロファイルを読み込めませんでした: %w", err)
	}

	js, err := simplejson.NewJson(content)
	if err != nil {
		return nil, fmt.Errorf("プロファイルの解析に失敗しました: %w", err)
	}

	def := defaultProfile()
	source := js.Get("source")
	target := js.Get("target")

	return &profile{
		sourceMaxX: int32(source.Get("max_x").MustInt(int(def.sourceMaxX))),
		sourceMaxY: int32(source.Get("max_y").MustInt(int(def.sourceMaxY))),
		targetMaxX: int32(target.Get("max_x").MustInt(int(def.targetMaxX))),
		targetMaxY: int32(target.Get("max_y").MustInt(int(def.targetMaxY))),
		resolution: int32(target.Get("resolution").MustInt(int(def.resolution))),
	}, nil
}

// resolutionRecord はブリッジ側の軸をプロファイルに合わせる
// 先頭レコードを返す
func (p *profile) resolutionRecord() wireRecord {
	return wireRecord{
		X:          uint16(p.targetMaxX),
		Y:          uint16(p.targetMaxY),
		PointerKey: uint16(p.resolution),
		EventType:  eventChangeResolution,
	}
}

// scaleX はソース座標をターゲットのX軸へ写像する
func (p *profile) scaleX(x int32) uint16 {
	return scale(x, p.sourceMaxX, p.targetMaxX)
}

// scaleY はソース座標をターゲットのY軸へ写像する
func (p *profile) scaleY(y int32) uint16 {
	return scale(y, p.sourceMaxY, p.targetMaxY)
}

func scale(v, sourceMax, targetMax int32) uint16 {
	if sourceMax <= 0 {
		return 0
	}
	if v < 0 {
		v = 0
	}
	if v > sourceMax {
		v = sourceMax
	}
	return uint16(int64(v) * int64(targetMax) / int64(sourceMax))
}
