package internal

import (
	"errors"
	"sync"
	"time"
)

// 系統設計問題：
//   如何讓兩個玩家的模擬器保持影格級同步（lockstep）？
//
// 核心挑戰：
//   1. 狀態管理：房間只有兩個狀態（Idle ↔ Playing），但每次轉換都伴隨廣播
//   2. 就緒門檻：載入檔案後，兩端都確認完成才允許啟動時脈
//   3. 併發控制：兩條連接的調度迴圈加上房間自己的時脈回呼，同時操作共享狀態
//   4. 時脈取消：stop 返回後絕不能再有 FRAME 廣播（否則兩端影格數漂移）
//
// 設計方案：
//   ✅ 單一互斥鎖 - 所有變更（入座、離座、啟停、就緒）都是原子操作
//   ✅ 世代指標 - 時脈 goroutine 在鎖內比對自己是否仍是當前時脈
//   ✅ 射後不理廣播 - 送出不帶對端回壓，慢端只影響自己

const (
	// PlayersPerRoom 每間房間的玩家上限
	PlayersPerRoom = 2

	// DefaultFrameRate 未指定或無法解析時使用的影格率
	DefaultFrameRate = 50

	// MinFrameRate MaxFrameRate 影格率的合法範圍（每秒）
	MinFrameRate = 1
	MaxFrameRate = 100
)

// ErrRoomFull 房間兩個席位都已被佔用
var ErrRoomFull = errors.New("房間已滿")

// Room 一場雙人同步會話
//
// 狀態機：
//
//	Idle ←→ Playing
//
// 轉換規則：
//   - Idle → Playing：start（所有在座玩家就緒時）
//   - Playing → Idle：stop / 任何入座、離座、載檔操作強制暫停
//
// 空房間不會被銷毀：id 永遠有效，可被之後的配對重新取用。
type Room struct {
	ID int

	players   map[int]*Player // 席位 -> 玩家
	playing   bool
	frameRate int
	clock     *frameClock // 非 nil 若且唯若 playing
	mu        sync.Mutex
}

// frameClock 影格時脈
//
// 一個可取消的週期任務，由房間獨佔持有。
// 每間房間同時最多一個存活的時脈，只有 start/stop 能創建與取消。
type frameClock struct {
	stop chan struct{}
}

// NewRoom 創建空房間
func NewRoom(id int) *Room {
	return &Room{
		ID:      id,
		players: make(map[int]*Player, PlayersPerRoom),
	}
}

// Join 入座：分配最小可用席位並加入玩家
//
// 席位分配與入座必須在同一個臨界區完成，
// 否則兩條同時到達的連接可能搶到同一個席位。
func (r *Room) Join(conn Sender) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := 0
	for id := 1; id <= PlayersPerRoom; id++ {
		if _, taken := r.players[id]; !taken {
			slot = id
			break
		}
	}
	if slot == 0 {
		return nil, ErrRoomFull
	}

	player := NewPlayer(slot, conn)
	r.addPlayerLocked(player)
	return player, nil
}

// AddPlayer 加入玩家（席位已由呼叫端指定）
//
// 席位已被佔用時不做任何事（冪等性）。
func (r *Room) AddPlayer(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPlayerLocked(p)
}

// addPlayerLocked 實際入座流程（需要持有鎖）
//
// 順序是協議的一部分：
//  1. 先強制暫停（進行中的會話兩端要觀察到一致的 PAUSE）
//  2. 再通知現有成員有新人（REMOTE_CONNECTED）
//  3. 最後才給新人自己的入座確認（CONNECTED）
func (r *Room) addPlayerLocked(p *Player) {
	if _, exists := r.players[p.ID]; exists {
		return
	}

	r.stopLocked()
	r.broadcastLocked(MsgRemoteConnected, p.ID)
	r.players[p.ID] = p
	p.SendMessage(MsgConnected, r.ID, p.ID)
}

// RemovePlayer 移除玩家
//
// 玩家不在座時不做任何事。移除後強制暫停並通知剩餘成員。
// 最後一人離開後房間回到 Idle、零玩家，但仍然留在註冊表中。
func (r *Room) RemovePlayer(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, exists := r.players[p.ID]; !exists || current != p {
		return
	}

	delete(r.players, p.ID)
	r.stopLocked()
	r.broadcastLocked(MsgRemoteDisconnected, p.ID)
}

// Start 啟動播放
//
// 冪等：已在 Playing 時不做任何事（不重覆廣播 PLAY、不重啟時脈）。
//
// 就緒門檻只在滿房時生效：單人房間允許自行啟動時脈，
// 這是原始協議的刻意行為（透傳），不是針對單人播放的防護。
func (r *Room) Start(frameRate int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing {
		return
	}

	if len(r.players) == PlayersPerRoom {
		for _, p := range r.players {
			if !p.Ready {
				return
			}
		}
	}

	// 無法解析的參數退回預設值，其餘夾擠進合法範圍
	if frameRate == NotANumber {
		frameRate = DefaultFrameRate
	}
	if frameRate < MinFrameRate {
		frameRate = MinFrameRate
	}
	if frameRate > MaxFrameRate {
		frameRate = MaxFrameRate
	}

	clock := &frameClock{stop: make(chan struct{})}
	r.playing = true
	r.frameRate = frameRate
	r.clock = clock
	go r.runClock(clock, time.Second/time.Duration(frameRate))

	r.broadcastLocked(MsgPlay)
}

// Stop 暫停播放
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// stopLocked 取消時脈並廣播 PAUSE（需要持有鎖）
//
// 已在 Idle 時不做任何事。
//
// 同步取消的保證：FRAME 只會在鎖內、且時脈仍是當前世代時廣播；
// 這裡在鎖內翻掉 playing 並換掉世代指標，
// 所以 stop 返回之後不可能再有 FRAME 送出。
func (r *Room) stopLocked() {
	if !r.playing {
		return
	}

	r.playing = false
	r.frameRate = 0
	close(r.clock.stop)
	r.clock = nil
	r.broadcastLocked(MsgPause)
}

// runClock 時脈迴圈
//
// 每個 tick 先取鎖、確認自己仍是房間的當前時脈才廣播 FRAME。
// 被取代或停止的時脈即使還卡在鎖上，醒來後也只會默默退出。
func (r *Room) runClock(clock *frameClock, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			if !r.playing || r.clock != clock {
				r.mu.Unlock()
				return
			}
			r.broadcastLocked(MsgFrame)
			r.mu.Unlock()
		case <-clock.stop:
			return
		}
	}
}

// LoadFile 廣播載入檔案
//
// 強制暫停並重設所有玩家的就緒旗標，之後廣播 LOAD_FILE。
// 不會自動重新啟動：兩端載入完成後需要明確的 PLAY 訊息。
func (r *Room) LoadFile(fileID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	for _, p := range r.players {
		p.Ready = false
	}
	r.broadcastLocked(MsgLoadFile, fileID)
}

// FileLoaded 玩家回報檔案載入完成
//
// 玩家不在座時不做任何事。
// fileID 不與最近一次 LOAD_FILE 的 id 交叉驗證（原始協議如此），
// 就算這讓全房就緒也不會自動啟動。
func (r *Room) FileLoaded(fileID, playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_ = fileID
	if p, exists := r.players[playerID]; exists {
		p.Ready = true
	}
}

// Broadcast 廣播訊息給所有在座玩家
//
// 送出順序沒有定義，客戶端不得依賴玩家之間的送達順序。
func (r *Room) Broadcast(msg int, args ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg, args...)
}

// broadcastLocked 廣播（需要持有鎖）
//
// 每條連接的送出彼此獨立且不阻塞，慢端不會拖住另一端。
func (r *Room) broadcastLocked(msg int, args ...int) {
	for _, p := range r.players {
		p.SendMessage(msg, args...)
	}
}

// NumPlayers 在座玩家數
func (r *Room) NumPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// IsPlaying 是否正在播放
func (r *Room) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// FrameRate 目前生效的影格率（Idle 時為 0）
func (r *Room) FrameRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameRate
}

// PlayerReady 指定席位的就緒旗標（玩家不在座時為 false）
func (r *Room) PlayerReady(playerID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, exists := r.players[playerID]; exists {
		return p.Ready
	}
	return false
}
