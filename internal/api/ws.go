package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/char5742/toccami-bridge/internal/protocol"
	"github.com/char5742/toccami-bridge/internal/touch"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// ローカルフロントエンド向けのためオリジンは制限しない
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket経由チャネルのハンドラ
//
// バイナリメッセージ1件がバッチ1件となり、ソケットチャネルと同じ
// 排他・検証規則に従う。応答はテキストメッセージの状態行
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	pad := s.service.Pad()
	if pad == nil {
		writeError(w, http.StatusServiceUnavailable, "サービスが実行されていません")
		return
	}

	session, err := pad.Open()
	if errors.Is(err, touch.ErrBusy) {
		writeError(w, http.StatusConflict, "チャネルは使用中です")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		session.Close()
		log.Printf("WebSocketアップグレードエラー: %v", err)
		return
	}
	defer conn.Close()
	defer session.Close()

	log.Printf("WebSocketチャネルをオープンしました: %s", r.RemoteAddr)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			log.Printf("WebSocketチャネルをクローズしました: %s", r.RemoteAddr)
			return
		}
		if msgType != websocket.BinaryMessage {
			conn.WriteMessage(websocket.TextMessage, []byte("err binary-expected"))
			continue
		}

		n, err := session.Write(payload)
		if err != nil {
			if errors.Is(err, protocol.ErrInvalidLength) {
				conn.WriteMessage(websocket.TextMessage, []byte("err invalid-argument"))
				continue
			}
			log.Printf("バッチ適用エラー: %v", err)
			conn.WriteMessage(websocket.TextMessage, []byte("err internal"))
			return
		}

		conn.WriteMessage(websocket.TextMessage, fmt.Appendf(nil, "ok %d", n))
	}
}
