package internal

import (
	"fmt"
	"log/slog"
	"sync"
)

// 系統設計問題：
//   如何把陸續到達的連接兩兩配成一間房？
//
// 核心挑戰：
//   1. 兩種加入模式：指名加入（帶 room 參數）與自動配對（不帶參數）
//   2. 容量上限：註冊表最多 256 間房，超過即拒絕
//   3. id 穩定性：房間 id 循序分配、永不重用，空房仍然可被指名
//   4. 首連延遲：第一位玩家不應該等建房，啟動時先預建一池空房
//
// 設計方案：
//   ✅ 循序 id（count+1）- 房間永不刪除，len+1 永遠是下一個 id
//   ✅ 創建順序掃描 - 自動配對永遠撿編號最小的空房
//   ✅ RWMutex - 查找頻繁（讀鎖），建房少見（寫鎖）

const (
	// MaxRooms 註冊表可持有的房間數上限
	MaxRooms = 256

	// DefaultPrecreateRooms 啟動時預建的空房間數
	DefaultPrecreateRooms = 64
)

// Manager 房間註冊表
//
// 房間一旦創建就永遠留在註冊表裡：
// 清空的房間不刪除，而是回到「空房」狀態等待下一輪配對，
// 同時保持原 id 可被指名加入。
type Manager struct {
	rooms    map[int]*Room // 房間 id -> 房間
	maxRooms int
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewManager 創建房間註冊表
//
// maxRooms 小於等於 0 時使用預設上限 MaxRooms。
func NewManager(maxRooms int, logger *slog.Logger) *Manager {
	if maxRooms <= 0 {
		maxRooms = MaxRooms
	}
	return &Manager{
		rooms:    make(map[int]*Room),
		maxRooms: maxRooms,
		logger:   logger,
	}
}

// CreateRoom 創建新房間
//
// 已達容量上限時失敗。id 循序分配（count+1），永不重用：
// 房間從不刪除，所以 len(rooms)+1 就是下一個循序 id。
func (m *Manager) CreateRoom() (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createRoomLocked()
}

// createRoomLocked 創建房間（需要持有寫鎖）
func (m *Manager) createRoomLocked() (*Room, error) {
	if len(m.rooms) >= m.maxRooms {
		return nil, fmt.Errorf("已達房間數上限: %d", m.maxRooms)
	}

	room := NewRoom(len(m.rooms) + 1)
	m.rooms[room.ID] = room

	m.logger.Debug("房間已創建", "room_id", room.ID)
	return room, nil
}

// FindRoom 指名查找房間
//
// 房間必須存在且還有空位，否則失敗。供指名加入請求使用。
func (m *Manager) FindRoom(id int) (*Room, error) {
	m.mu.RLock()
	room, exists := m.rooms[id]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("房間不存在: %d", id)
	}
	if room.NumPlayers() >= PlayersPerRoom {
		return nil, fmt.Errorf("房間已滿: %d", id)
	}
	return room, nil
}

// FindEmptyRoom 自動配對查找
//
// 按創建順序掃描第一間零玩家的房間；都沒有就建一間新的。
// 只有在註冊表完全滿載時才會失敗。
func (m *Manager) FindEmptyRoom() (*Room, error) {
	m.mu.RLock()
	count := len(m.rooms)
	for id := 1; id <= count; id++ {
		room := m.rooms[id]
		if room.NumPlayers() == 0 {
			m.mu.RUnlock()
			return room, nil
		}
	}
	m.mu.RUnlock()

	return m.CreateRoom()
}

// PrecreateRooms 預建空房間池
//
// 回傳實際創建的數量（容量不足時提前停止）。
func (m *Manager) PrecreateRooms(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := 0
	for i := 0; i < n; i++ {
		if _, err := m.createRoomLocked(); err != nil {
			break
		}
		created++
	}

	m.logger.Info("空房間池已預建", "requested", n, "created", created)
	return created
}

// Stats 統計資訊
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totalPlayers := 0
	occupiedRooms := 0
	playingRooms := 0

	for _, room := range m.rooms {
		n := room.NumPlayers()
		totalPlayers += n
		if n > 0 {
			occupiedRooms++
		}
		if room.IsPlaying() {
			playingRooms++
		}
	}

	return map[string]any{
		"total_rooms":    len(m.rooms),
		"occupied_rooms": occupiedRooms,
		"playing_rooms":  playingRooms,
		"total_players":  totalPlayers,
	}
}
