package api

import (
	"fmt"
	"log"
	"sync"

	"github.com/char5742/toccami-bridge/internal/config"
	"github.com/char5742/toccami-bridge/internal/features"
	"github.com/char5742/toccami-bridge/internal/ingress"
	"github.com/char5742/toccami-bridge/internal/touch"
)

// BridgeService は仮想タッチパッドとチャネルの寿命を管理する構造体
//
// 起動時にuinputデバイス・コア・ソケットリスナーを組み立て、
// 停止時に逆順で解体する
type BridgeService struct {
	cfg         *config.Config
	statusMutex sync.RWMutex
	running     bool
	touchPad    *features.VirtualTouchPad
	pad         *touch.Pad
	listener    *ingress.Listener
}

// NewBridgeService は新しいブリッジサービスを作成する
func NewBridgeService(cfg *config.Config) *BridgeService {
	return &BridgeService{
		cfg:     cfg,
		running: false,
	}
}

// Start はブリッジサービスを開始する
func (s *BridgeService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return fmt.Errorf("サービスは既に実行中です")
	}

	axis := s.cfg.TouchPad.AxisConfig()

	// 仮想タッチパッドデバイスの作成
	padDevice, err := features.CreateTouchPad(s.cfg.Device.UinputPath, []byte(s.cfg.Device.Name), axis)
	if err != nil {
		return fmt.Errorf("仮想タッチパッドの作成に失敗しました: %v", err)
	}
	s.touchPad = padDevice
	s.pad = touch.NewPad(padDevice, axis)

	// チャネルソケットの開設
	network, addr := s.channelEndpoint()
	listener, err := ingress.Listen(network, addr, s.pad)
	if err != nil {
		s.touchPad.Close()
		s.touchPad = nil
		s.pad = nil
		return err
	}
	s.listener = listener
	s.running = true

	log.Printf("ブリッジサービスを開始しました: %s://%s", network, addr)
	return nil
}

// Stop はブリッジサービスを停止する
func (s *BridgeService) Stop() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if !s.running {
		return fmt.Errorf("サービスは実行されていません")
	}

	s.listener.Close()
	s.touchPad.Close()
	s.listener = nil
	s.touchPad = nil
	s.pad = nil
	s.running = false

	log.Println("ブリッジサービスを停止しました")
	return nil
}

// IsRunning はサービスが実行中かどうかを返す
func (s *BridgeService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// Pad は実行中のコアを返す（停止中はnil）
func (s *BridgeService) Pad() *touch.Pad {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.pad
}

// UpdateConfig は設定を差し替える
//
// デバイス名や軸の初期値は次回のStartから反映される。実行中の
// 軸変更はチャネル経由の解像度変更レコードで行う
func (s *BridgeService) UpdateConfig(cfg *config.Config) {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	s.cfg = cfg
	if s.running {
		log.Println("設定を更新しました（デバイス設定は次回起動時に反映されます）")
	}
}

// channelEndpoint は設定からチャネルの待ち受け先を決める
//
// TCPアドレスが指定されていればTCP、なければunixソケットを使う
func (s *BridgeService) channelEndpoint() (network, addr string) {
	if s.cfg.Channel.TCPAddr != "" {
		return "tcp", s.cfg.Channel.TCPAddr
	}
	return "unix", s.cfg.Channel.SocketPath
}
