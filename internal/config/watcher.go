package config

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher は設定ファイルの変更を監視し、再読み込みした設定を
// コールバックへ通知する
type Watcher struct {
	configPath string
	watcher    *fsnotify.Watcher
	onReload   func(*Config)
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewWatcher は設定ファイル監視を作成する
func NewWatcher(configPath string, onReload func(*Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		configPath: configPath,
		watcher:    watcher,
		onReload:   onReload,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start は監視を開始する
//
// エディタのatomic save（rename経由）も拾えるよう、ファイルでは
// なく親ディレクトリを監視対象にする
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return err
	}

	go w.watchEvents()
	return nil
}

// Stop は監視を停止する（冪等）
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.watcher.Close()
	})
}

// watchEvents はfsnotifyのイベントを監視する
func (w *Watcher) watchEvents() {
	// 連続する書き込みイベントを収集してバッチ処理するためのしくみ
	eventDebounceTime := 500 * time.Millisecond
	eventTimer := time.NewTimer(eventDebounceTime)
	eventTimer.Stop() // 初期状態では停止
	pendingReload := false

	for {
		select {
		case <-w.stopChan:
			return

		case <-eventTimer.C:
			if pendingReload {
				pendingReload = false
				cfg, err := LoadConfig(w.configPath)
				if err != nil {
					log.Printf("設定ファイルの再読み込みに失敗しました: %v", err)
					continue
				}
				log.Printf("設定ファイルを再読み込みしました: %s", w.configPath)
				w.onReload(cfg)
			}

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// 設定ファイルに関連するイベントのみ処理
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			// タイマーをリセットして複数のイベントをバッチ処理
			if !pendingReload {
				pendingReload = true
				eventTimer.Reset(eventDebounceTime)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("設定ファイル監視エラー: %v", err)
		}
	}
}
