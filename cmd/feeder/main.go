package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akamensky/argparse"
	golog "github.com/withmandala/go-log"
)

var logger = golog.New(os.Stderr).WithColor()

func main() {
	parser := argparse.NewParser("toccami-feeder", "タッチスクリーンのイベントをブリッジへ転送します")

	var devicePath *string = parser.String("d", "device", &argparse.Options{
		Required: true,
		Help:     "読み取るタッチデバイスのパス 例: /dev/input/event5",
	})

	var socketPath *string = parser.String("s", "socket", &argparse.Options{
		Required: false,
		Default:  "/run/toccami-bridge.sock",
		Help:     "ブリッジのunixソケットパス",
	})

	var tcpAddr *string = parser.String("n", "network", &argparse.Options{
		Required: false,
		Default:  "",
		Help:     "ブリッジのTCPアドレス 例: 192.168.3.7:7654 (指定時はソケットより優先)",
	})

	var profilePath *string = parser.String("p", "profile", &argparse.Options{
		Required: false,
		Default:  "",
		Help:     "座標対応プロファイル(JSON)のパス",
	})

	var debugMode *bool = parser.Flag("", "debug", &argparse.Options{
		Required: false,
		Default:  false,
		Help:     "デバッグ情報を表示します",
	})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	if *debugMode {
		logger = logger.WithDebug()
		logger.Debug("debug on")
	}

	// プロファイルの読み込み
	prof := defaultProfile()
	if *profilePath != "" {
		loaded, err := loadProfile(*profilePath)
		if err != nil {
			logger.Fatalf("プロファイルの読み込みに失敗しました: %v", err)
		}
		prof = loaded
	}

	// ブリッジへ接続
	network, addr := "unix", *socketPath
	if *tcpAddr != "" {
		network, addr = "tcp", *tcpAddr
	}
	conn, err := net.Dial(network, addr)
	if err != nil {
		logger.Fatalf("ブリッジへ接続できませんでした [%s://%s]: %v", network, addr, err)
	}
	defer conn.Close()

	replies := bufio.NewReader(conn)
	greeting, err := replies.ReadString('\n')
	if err != nil {
		logger.Fatalf("ブリッジからの応答がありません: %v", err)
	}
	if strings.TrimSpace(greeting) != "ready" {
		logger.Fatalf("チャネルを取得できませんでした: %s", strings.TrimSpace(greeting))
	}
	logger.Infof("ブリッジへ接続しました: %s://%s", network, addr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("シャットダウンします...")
		cancel()
		conn.Close()
	}()

	// 先頭フレームでブリッジ側の軸をプロファイルに合わせる
	if err := sendFrame(conn, replies, []wireRecord{prof.resolutionRecord()}); err != nil {
		logger.Fatalf("軸設定の送信に失敗しました: %v", err)
	}

	reader, err := createEventReader(ctx, *devicePath)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	translator := newMtTranslator(prof)
	for pack := range reader {
		records := translator.translate(pack)
		if len(records) == 0 {
			continue
		}
		if err := sendFrame(conn, replies, records); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Fatalf("フレームの送信に失敗しました: %v", err)
		}
		logger.Debugf("%dレコードを送信しました", len(records))
	}
}

// sendFrame はフレーム1件を送信し、ブリッジの応答行を確認する
func sendFrame(conn net.Conn, replies *bufio.Reader, records []wireRecord) error {
	frame, err := packFrame(records)
	if err != nil {
		return err
	}
	if _, err := conn.Write(frame); err != nil {
		return err
	}

	reply, err := replies.ReadString('\n')
	if err != nil {
		return err
	}
	if !strings.HasPrefix(reply, "ok ") {
		return fmt.Errorf("ブリッジがバッチを拒否しました: %s", strings.TrimSpace(reply))
	}
	return nil
}
