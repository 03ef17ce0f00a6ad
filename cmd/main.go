package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/browser"

	"github.com/char5742/toccami-bridge/internal/api"
	"github.com/char5742/toccami-bridge/internal/config"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.Int("port", 0, "APIサーバーのポート番号 (0の場合は設定ファイルの値を使用)")
	openBrowser := flag.Bool("open", false, "起動後にブラウザで状態ページを開きます")
	flag.Parse()

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	// 設定ファイルパスの決定
	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("設定ファイルの読み込みに失敗しました: %v\nデフォルト設定を使用します\n", err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("設定ファイルを読み込みました: %s\n", cfgPath)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// シグナルハンドラの設定
	handleSignals()

	service := api.NewBridgeService(cfg)

	// 設定ファイルの変更監視
	if cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, func(newCfg *config.Config) {
			service.UpdateConfig(newCfg)
		})
		if err != nil {
			log.Printf("設定ファイル監視の作成に失敗しました: %v", err)
		} else if err := watcher.Start(); err != nil {
			log.Printf("設定ファイル監視の開始に失敗しました: %v", err)
		}
	}

	// ポートはフラグ指定を優先し、未指定なら設定ファイルの値を使う
	apiPort := cfg.API.Port
	if *port != 0 {
		apiPort = *port
	}

	// APIモードかCLIモードかを判断
	if *useApi {
		// APIモードで実行
		fmt.Printf("APIサーバーモードで起動します (ポート: %d)...\n", apiPort)
		runApiServer(cfg, service, apiPort, *openBrowser)
	} else {
		// CLIモードで実行
		fmt.Println("CLIモードで起動します...")
		runCLI(service)
	}
}

// APIサーバーモードでの実行
func runApiServer(cfg *config.Config, service *api.BridgeService, port int, open bool) {
	// APIサーバーを作成
	server := api.NewServer(cfg, service, port)

	if open {
		go func() {
			url := fmt.Sprintf("http://localhost:%d/api/status", port)
			if err := browser.OpenURL(url); err != nil {
				log.Printf("ブラウザの起動に失敗しました: %v", err)
			}
		}()
	}

	// サーバー起動
	if err := server.Start(); err != nil {
		log.Fatalf("APIサーバーの起動に失敗しました: %v", err)
	}
}

// CLIモードでの実行
func runCLI(service *api.BridgeService) {
	// ブリッジサービスを開始
	if err := service.Start(); err != nil {
		fmt.Printf("ブリッジサービスの起動に失敗しました: %v\n", err)
		os.Exit(1)
	}

	// シグナルが来るまで待機（終了処理はhandleSignals内で行われる）
	select {}
}

func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("シャットダウンします...")
		os.Exit(0)
	}()
}
