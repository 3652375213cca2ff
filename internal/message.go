package internal

import (
	"math"
	"strconv"
	"strings"
)

// 系統設計問題：
//   兩端之間的控制訊息該如何編碼，才能讓模擬器前端以最低成本解析？
//
// 核心挑戰：
//   1. 訊息極小：每則訊息只有一個型別碼加上零到兩個整數參數
//   2. 頻率極高：Playing 狀態下每秒最多廣播 100 次 FRAME
//   3. 兩端一致：型別碼在部署的兩端必須完全相同（不做內容協商）
//
// 設計方案：
//   ✅ 逗號分隔的十進位文字 - 前端一行 split(",") 就能解析
//   ✅ 循序整數型別碼 - 程式啟動時一次指定，永不變動
//   ✅ NotANumber 哨兵值 - 壞參數原樣傳遞，不中斷會話

// 訊息型別碼
//
// 從 1 開始的循序整數，線上兩端使用同一份表：
//   - 入站（客戶端 → 服務器）：操作請求與按鍵事件
//   - 出站（服務器 → 客戶端）：房間事件與同步時脈
const (
	MsgButtonDown = iota + 1 // 按鍵按下（arg0、arg1 原樣轉發）
	MsgButtonUp              // 按鍵放開（同上）
	MsgPlay                  // 開始播放（入站時 arg0 為請求的影格率）
	MsgPause                 // 暫停播放
	MsgMute                  // 靜音
	MsgUnmute                // 取消靜音
	MsgReload                // 重新載入
	MsgClose                 // 關閉會話
	MsgLoadFile              // 載入檔案（arg0: 檔案 id）
	MsgFileLoaded            // 檔案載入完成確認（arg0: 檔案 id）
	MsgRemoteConnected       // 對端玩家已連接（arg0: 席位）
	MsgRemoteDisconnected    // 對端玩家已斷線（arg0: 席位）
	MsgConnected             // 自己已入座（arg0: 房間 id, arg1: 席位）
	MsgFrame                 // 影格時脈
)

// NotANumber 無法解析為整數的參數以此哨兵值傳遞
//
// 壞參數不在編解碼層報錯，由上層處理器自行決定如何面對，
// 與原始協議的行為一致（需要嚴格正確性的呼叫端應在上游驗證）。
const NotANumber = math.MinInt32

// Encode 將訊息編碼為逗號分隔的十進位文字
func Encode(msg int, args ...int) []byte {
	buf := strconv.AppendInt(nil, int64(msg), 10)
	for _, arg := range args {
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, int64(arg), 10)
	}
	return buf
}

// Decode 解析單一訊息框
//
// 第一個整數是型別碼，其餘為參數。
// 以逗號切割後逐一解析為（可帶符號的）整數，
// 無法解析的片段以 NotANumber 佔位。
func Decode(data []byte) (int, []int) {
	tokens := strings.Split(string(data), ",")
	values := make([]int, len(tokens))
	for i, token := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			values[i] = NotANumber
			continue
		}
		values[i] = n
	}
	return values[0], values[1:]
}
