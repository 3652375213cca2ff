package internal

// Sender 玩家對外送出訊息的最小介面
//
// 真正的實作是 WebSocket 連接（見 websocket.go），
// 測試中則以記錄用的假連接代替。
// Send 必須是射後不理：慢速或已死的對端不能拖慢另一位玩家。
type Sender interface {
	Send(data []byte)
}

// Player 房間內的一名玩家
//
// 玩家只在房間的範圍內有意義：
//   - ID 是房間內的席位編號（1 或 2），
//     永遠取目前未被佔用的最小值，玩家離開後可被下一位加入者重用
//   - conn 在玩家的生命週期內由該玩家獨佔
//   - Ready 只會被 FILE_LOADED 確認訊息設為 true，
//     每次 LOAD_FILE 廣播時全房重設為 false
//
// Ready 的讀寫一律在所屬房間的鎖內進行。
type Player struct {
	ID    int
	Ready bool
	conn  Sender
}

// NewPlayer 創建玩家
func NewPlayer(id int, conn Sender) *Player {
	return &Player{ID: id, conn: conn}
}

// SendMessage 編碼並送出一則訊息給這名玩家
func (p *Player) SendMessage(msg int, args ...int) {
	p.conn.Send(Encode(msg, args...))
}
