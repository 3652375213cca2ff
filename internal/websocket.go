package internal

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何把一條 WebSocket 連接接入房間，並把入站訊息轉發成房間操作？
//
// 核心挑戰：
//   1. 配對時機：連接升級前就要決定去哪間房（拒絕時直接不升級）
//   2. 會話狀態：每條連接要記住自己的房間與席位，供之後每則訊息使用
//   3. 順序保證：同一條連接的訊息嚴格依序處理，不同連接可以並行
//   4. 死連接：對端異常斷線要與正常關閉走同一條清理路徑
//
// 設計方案：
//   ✅ Hub 模式 - 集中管理所有連接，支援優雅關閉
//   ✅ 會話物件 - Connection 持有房間與玩家的引用（不是閉包）
//   ✅ 讀寫分離 - readPump 依序調度，writePump 異步送出
//   ✅ Ping/Pong 心跳 - 檢測死連接（54s/60s）

// Hub WebSocket 接入中心
type Hub struct {
	manager  *Manager
	logger   *slog.Logger
	upgrader websocket.Upgrader
	conns    map[*Connection]struct{}
	mu       sync.Mutex
}

// Connection 一條玩家連接，同時是該玩家在房間內的會話
//
// room 與 player 的引用在入座成功時建立（引用而非所有權），
// 之後每個入站事件都經由這個會話物件轉發，不再依賴任何閉包狀態。
type Connection struct {
	hub    *Hub
	room   *Room
	player *Player
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once // done 只關閉一次
}

// NewHub 創建 WebSocket 接入中心
func NewHub(manager *Manager, logger *slog.Logger) *Hub {
	return &Hub{
		manager: manager,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 在生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[*Connection]struct{}),
	}
}

// ServeWS 處理 WebSocket 連接
//
// 配對策略：
//   - room 參數為正整數：指名加入，房間必須存在且有空位，否則拒絕
//   - 其餘情況（缺參數、0、非數字）：自動配對第一間空房，滿載才拒絕
//
// 拒絕即關閉，對任何房間都沒有副作用；
// 客戶端只能從「握手沒有完成、沒收到 CONNECTED」推斷被拒。
func (hub *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	room, err := hub.resolveRoom(r)
	if err != nil {
		hub.logger.Info("拒絕連接",
			"error", err,
			"remote", r.RemoteAddr)
		http.Error(w, "無法加入房間", http.StatusNotFound)
		return
	}

	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	c := &Connection{
		hub:  hub,
		room: room,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}

	// 配對檢查與實際入座之間可能被另一條連接搶先，
	// 所以入座在房間鎖內重新驗證（Join 會分配最小可用席位）
	player, err := room.Join(c)
	if err != nil {
		hub.logger.Info("入座失敗，關閉連接",
			"room_id", room.ID,
			"error", err)
		conn.Close()
		return
	}
	c.player = player

	hub.register(c)

	go c.writePump()
	go c.readPump()

	hub.logger.Info("玩家已連接",
		"room_id", room.ID,
		"player_id", player.ID,
		"remote", r.RemoteAddr)
}

// resolveRoom 從初始請求解析配對目標
func (hub *Hub) resolveRoom(r *http.Request) (*Room, error) {
	param := r.URL.Query().Get("room")
	if id, err := strconv.Atoi(param); err == nil && id > 0 {
		return hub.manager.FindRoom(id)
	}
	return hub.manager.FindEmptyRoom()
}

// register 登記連接
func (hub *Hub) register(c *Connection) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.conns[c] = struct{}{}
}

// unregister 註銷連接並喚醒 writePump 退出
func (hub *Hub) unregister(c *Connection) {
	hub.mu.Lock()
	delete(hub.conns, c)
	hub.mu.Unlock()

	c.close()
}

// Stop 關閉所有連接（優雅關閉用）
func (hub *Hub) Stop() {
	hub.mu.Lock()
	for c := range hub.conns {
		c.close()
		c.conn.Close()
	}
	hub.conns = make(map[*Connection]struct{})
	hub.mu.Unlock()

	hub.logger.Info("WebSocket Hub 已停止")
}

// close 標記連接結束（只生效一次）
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Send 射後不理的送出
//
// send channel 從不關閉，所以任何時刻推入都是安全的；
// 緩衝區滿代表對端消費太慢，直接丟棄這一則，
// 絕不讓回壓傳導回房間操作或另一位玩家。
func (c *Connection) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("連接緩衝區滿，丟棄訊息", "room_id", c.room.ID)
	}
}

// readPump 依序調度入站訊息
//
// 同一條連接的訊息在這個 goroutine 內嚴格依序處理；
// 兩位玩家各有自己的 readPump，可能同時操作同一間房，
// 互斥交給房間自己的鎖。
//
// 心跳（讀取端）：60 秒內沒有任何訊息（含 Pong）就視為死連接。
// 正常關閉與傳輸錯誤走完全相同的退出路徑：離座並通知對端。
func (c *Connection) readPump() {
	defer func() {
		c.room.RemovePlayer(c.player)
		c.hub.unregister(c)
		c.conn.Close()

		c.hub.logger.Info("玩家已離開",
			"room_id", c.room.ID,
			"player_id", c.player.ID)
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.hub.logger.Error("設置讀取期限失敗", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.hub.logger.Error("設置讀取期限失敗", "error", err)
		}
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket 讀取錯誤",
					"error", err,
					"room_id", c.room.ID,
					"player_id", c.player.ID)
			}
			break
		}

		if messageType == websocket.TextMessage {
			c.route(message)
		}
	}
}

// route 把一則入站訊息轉發成房間操作
//
// 調度表：
//
//	PLAY        → room.Start(arg0)
//	PAUSE       → room.Stop()
//	BUTTON_*    → 廣播給全房（含送出者自己）
//	LOAD_FILE   → room.LoadFile(arg0)
//	FILE_LOADED → room.FileLoaded(arg0, 自己的席位)
//	RELOAD      → room.Stop() 後廣播 RELOAD
//	CLOSE       → room.Stop() 後廣播 CLOSE
//	MUTE/UNMUTE → 廣播
//	其他        → 靜默忽略
func (c *Connection) route(data []byte) {
	msg, args := Decode(data)

	switch msg {
	case MsgPlay:
		c.room.Start(argAt(args, 0))
	case MsgPause:
		c.room.Stop()
	case MsgButtonDown, MsgButtonUp:
		c.room.Broadcast(msg, argAt(args, 0), argAt(args, 1))
	case MsgLoadFile:
		c.room.LoadFile(argAt(args, 0))
	case MsgFileLoaded:
		c.room.FileLoaded(argAt(args, 0), c.player.ID)
	case MsgReload:
		c.room.Stop()
		c.room.Broadcast(MsgReload)
	case MsgClose:
		c.room.Stop()
		c.room.Broadcast(MsgClose)
	case MsgMute, MsgUnmute:
		c.room.Broadcast(msg)
	default:
		c.hub.logger.Debug("忽略未知訊息型別",
			"type", msg,
			"room_id", c.room.ID,
			"player_id", c.player.ID)
	}
}

// argAt 取出第 i 個參數，缺漏時視為 NotANumber
func argAt(args []int, i int) int {
	if i >= len(args) {
		return NotANumber
	}
	return args[i]
}

// writePump 異步送出出站訊息
//
// 心跳（發送端）：每 54 秒送一次 Ping，配合 readPump 的 60 秒超時
// （留 6 秒余量給網絡傳輸與處理時間，避開代理常見的 60 秒閾值）。
func (c *Connection) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// 批量送出佇列中剩餘的訊息
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			// 嘗試送出關閉訊息，忽略錯誤（連接可能已關閉）
			deadline := time.Now().Add(time.Second)
			if err := c.conn.SetWriteDeadline(deadline); err == nil {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			}
			return
		}
	}
}
