package touch

// AxisConfig は仮想デバイスの軸設定（最小値・最大値・解像度）を表す構造体
//
// 解像度は物理単位あたりのデバイス単位数。座標のクランプは行わず、
// 範囲外の座標もそのままシンクへ渡される
type AxisConfig struct {
	MinX        int32 `json:"min_x"`
	MaxX        int32 `json:"max_x"`
	MinY        int32 `json:"min_y"`
	MaxY        int32 `json:"max_y"`
	ResolutionX int32 `json:"resolution_x"`
	ResolutionY int32 `json:"resolution_y"`
}

// AxisStore は軸設定を保持するストア
//
// 変更は解像度変更レコードによってのみ行われ、チャネルのロックが
// 唯一の同期手段となる（内部ロックは持たない）
type AxisStore struct {
	cfg AxisConfig
}

// NewAxisStore は初期設定から軸ストアを作成する
func NewAxisStore(cfg AxisConfig) *AxisStore {
	return &AxisStore{cfg: cfg}
}

// Config は現在の軸設定を返す
func (s *AxisStore) Config() AxisConfig {
	return s.cfg
}

// Set は新しい軸設定を反映する
//
// シンクが新しい設定を受理してから呼ぶこと。先に呼ぶとシンクの
// 失敗時にストアとデバイスが食い違う
func (s *AxisStore) Set(cfg AxisConfig) {
	s.cfg = cfg
}

// ResolutionConfig は解像度変更レコードの内容を軸設定へ変換する
//
// 最小値は常に0へリセットされ、xMax/yMaxが各軸の新しい最大値、
// sharedが両軸共通の解像度となる。純粋な変換で副作用はない
func ResolutionConfig(xMax, yMax, shared uint16) AxisConfig {
	return AxisConfig{
		MinX:        0,
		MaxX:        int32(xMax),
		MinY:        0,
		MaxY:        int32(yMax),
		ResolutionX: int32(shared),
		ResolutionY: int32(shared),
	}
}
