package features

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/char5742/toccami-bridge/internal/consts"
	"github.com/char5742/toccami-bridge/internal/touch"
	"github.com/char5742/toccami-bridge/internal/types"
	"github.com/char5742/toccami-bridge/internal/utils"
)

// VirtualTouchPad は/dev/uinput上に作成する仮想マルチタッチデバイス
// （touch.Sinkの実装）
type VirtualTouchPad struct {
	path       string
	name       []byte
	deviceFile *os.File
	renderer   frameRenderer
	cfg        touch.AxisConfig
}

// CreateTouchPad は新しい仮想タッチパッドデバイスを作成する
func CreateTouchPad(path string, name []byte, cfg touch.AxisConfig) (*VirtualTouchPad, error) {
	fd, err := createTouchPadDevice(path, name, cfg)
	if err != nil {
		return nil, err
	}

	return &VirtualTouchPad{path: path, name: name, deviceFile: fd, cfg: cfg}, nil
}

// ConfigureAxes は軸の範囲と解像度を再設定する
//
// uinputのuser_devインターフェースは作成後の軸変更を許さないため、
// デバイスを破棄して新しい範囲で作り直す。再作成に失敗した場合は
// 旧デバイスも失われているのでエラーを返して呼び出し側に委ねる
func (vt *VirtualTouchPad) ConfigureAxes(cfg touch.AxisConfig) error {
	_ = releaseDevice(vt.deviceFile)
	_ = vt.deviceFile.Close()

	fd, err := createTouchPadDevice(vt.path, vt.name, cfg)
	if err != nil {
		return fmt.Errorf("軸再設定のためのデバイス再作成に失敗しました: %v", err)
	}

	vt.deviceFile = fd
	vt.cfg = cfg
	// 新しいデバイスは未接地状態で始まるため、次のフレームで
	// 追跡IDを再通知できるようレンダラをリセットする
	vt.renderer = frameRenderer{}
	return nil
}

// EmitFrame は同期済みフレーム1件をデバイスへ書き込む
func (vt *VirtualTouchPad) EmitFrame(frame []touch.SlotTransition) error {
	return writeEvents(vt.deviceFile, vt.renderer.render(frame))
}

// AxisConfig は現在デバイスへ広告している軸設定を返す
func (vt *VirtualTouchPad) AxisConfig() touch.AxisConfig {
	return vt.cfg
}

func (vt *VirtualTouchPad) Close() error {
	_ = releaseDevice(vt.deviceFile)
	return vt.deviceFile.Close()
}

// frameRenderer はスロット遷移をtype-Bマルチタッチのイベント列へ
// 変換し、BTN_TOUCH/BTN_TOOL_FINGERの接地状態を追跡する
type frameRenderer struct {
	active   [touch.MaxTouches]bool
	touching bool
}

func (r *frameRenderer) render(frame []touch.SlotTransition) []types.Event {
	var events []types.Event

	abs := func(code uint16, value int32) {
		events = append(events, types.Event{Type: consts.Abs, Code: code, Value: value})
	}

	for _, tr := range frame {
		if tr.Slot < 0 || tr.Slot >= touch.MaxTouches {
			continue
		}

		abs(consts.AbsMtSlot, int32(tr.Slot))
		if tr.Active {
			if !r.active[tr.Slot] {
				abs(consts.AbsMtTrackingId, tr.TrackingID)
			}
			abs(consts.AbsMtPositionX, tr.X)
			abs(consts.AbsMtPositionY, tr.Y)
			r.active[tr.Slot] = true
		} else {
			abs(consts.AbsMtTrackingId, -1)
			r.active[tr.Slot] = false
		}
	}

	// 接地スロットの有無に合わせてタッチ系のキー状態を更新する
	touching := false
	for _, a := range r.active {
		if a {
			touching = true
			break
		}
	}
	if touching != r.touching {
		value := int32(0)
		if touching {
			value = 1
		}
		events = append(events,
			types.Event{Type: consts.Key, Code: consts.BtnTouch, Value: value},
			types.Event{Type: consts.Key, Code: consts.BtnToolFinger, Value: value},
		)
		r.touching = touching
	}

	events = append(events, types.Event{Type: consts.Syn, Code: consts.SynReport, Value: 0})
	return events
}

func createTouchPadDevice(path string, name []byte, cfg touch.AxisConfig) (*os.File, error) {
	deviceFile, err := createDeviceFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not create absolute axis input device: %v", err)
	}

	// キー入力イベント(EV_KEY)を登録する
	// これによりタッチ検出や指の接触検出が可能になる
	err = registerDevice(deviceFile, uintptr(consts.Key))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %v", err)
	}

	// キー入力の種類（マウスボタン、タッチ検出など）を登録する
	for _, ev := range []int{
		consts.MouseBtnLeft,  // マウス左ボタン
		consts.BtnTouch,      // 画面タッチの検出
		consts.BtnToolFinger, // 指の接触検出
	} {
		if err = utils.IOCtl(deviceFile, consts.SetKeyBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("キー入力種別の登録に失敗しました %v: %v", ev, err)
		}
	}

	// 絶対座標入力イベント(EV_ABS)を登録する
	err = registerDevice(deviceFile, uintptr(consts.Abs))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("絶対座標入力イベント(EV_ABS)の登録に失敗しました: %v", err)
	}

	// ポインターデバイスのプロパティを設定する
	if err := utils.IOCtl(deviceFile, consts.SetPropBit, uintptr(consts.PropPointer)); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ポインターデバイスプロパティの設定に失敗しました: %v", err)
	}

	// X軸とY軸の座標を登録する
	for _, ev := range []int{consts.AbsX, consts.AbsY} {
		if err = utils.IOCtl(deviceFile, consts.SetAbsBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("座標軸の登録に失敗しました %v: %v", ev, err)
		}
	}

	// マルチタッチイベントを登録する
	for _, ev := range []int{
		consts.AbsMtSlot,       // スロット（指の識別子）
		consts.AbsMtPositionX,  // X座標
		consts.AbsMtPositionY,  // Y座標
		consts.AbsMtTrackingId, // タッチの追跡ID
	} {
		if err = utils.IOCtl(deviceFile, consts.SetAbsBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("マルチタッチイベントの登録に失敗しました %v: %v", ev, err)
		}
	}

	var absMin [consts.AbsSize]int32
	var absMax [consts.AbsSize]int32

	absMin[consts.AbsX] = cfg.MinX
	absMax[consts.AbsX] = cfg.MaxX
	absMin[consts.AbsY] = cfg.MinY
	absMax[consts.AbsY] = cfg.MaxY

	absMin[consts.AbsMtSlot] = 0
	absMax[consts.AbsMtSlot] = touch.MaxTouches - 1

	absMin[consts.AbsMtPositionX] = cfg.MinX
	absMax[consts.AbsMtPositionX] = cfg.MaxX
	absMin[consts.AbsMtPositionY] = cfg.MinY
	absMax[consts.AbsMtPositionY] = cfg.MaxY

	absMax[consts.AbsMtTrackingId] = 0xffff

	userDev := types.UserDev{
		Name: toUinputName(name),
		ID: types.InputID{
			Bustype: consts.BusUsb,
			Vendor:  0x4711,
			Product: 0x0826,
			Version: 1,
		},
		Absmin: absMin,
		Absmax: absMax,
	}

	fd, err := createUsbDevice(deviceFile, userDev)
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("USBデバイスの作成に失敗しました: %v", err)
	}

	return fd, nil
}

// デバイスファイルを作成する
func createDeviceFile(path string) (fd *os.File, err error) {
	deviceFile, err := os.OpenFile(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, errors.New("デバイスファイルを開くのに失敗しました")
	}
	return deviceFile, err
}

// デバイスを解放する
func releaseDevice(deviceFile *os.File) error {
	return utils.IOCtl(deviceFile, consts.DevDestroy, uintptr(0))
}

// デバイスを登録する
func registerDevice(deviceFile *os.File, evType uintptr) error {
	err := utils.IOCtl(deviceFile, consts.SetEvBit, evType)
	if err != nil {
		defer deviceFile.Close()
		err = releaseDevice(deviceFile)
		if err != nil {
			return fmt.Errorf("デバイスを解放するのに失敗しました: %v", err)
		}
		return fmt.Errorf("無効なファイルハンドルがutils.IOCtlから返されました: %v", err)
	}
	return nil
}

// USBデバイスを作成する
func createUsbDevice(deviceFile *os.File, dev types.UserDev) (fd *os.File, err error) {
	buf := new(bytes.Buffer)
	err = binary.Write(buf, binary.LittleEndian, dev)
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %v", err)
	}
	_, err = deviceFile.Write(buf.Bytes())
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %v", err)
	}

	err = utils.IOCtl(deviceFile, consts.DevCreate, uintptr(0))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイスの作成に失敗しました: %v", err)
	}

	return deviceFile, err
}

// イベントを書き込む
func writeEvents(deviceFile *os.File, events []types.Event) error {
	for _, ev := range events {
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %v", err)
		}
		if _, err := deviceFile.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("イベントの書き込みに失敗しました: %v", err)
		}
	}
	return nil
}

// 名前をuinput用の固定長配列に変換する
func toUinputName(name []byte) (uinputName [consts.MaxNameSize]byte) {
	var fixedSizeName [consts.MaxNameSize]byte
	copy(fixedSizeName[:], name)
	return fixedSizeName
}
