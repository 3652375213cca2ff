// Package internal 實現了一個雙人同步播放（netplay）中繼服務器。
//
// 服務器把恰好兩條即時連接配成一間共享房間，
// 在兩端之間轉發控制與時序訊息，實現 lockstep 式的會話協議
// （典型場景：聯網模擬器的雙人對戰）。
//
// # 房間與配對
//
// 提供完整的配對與會話生命週期管理：
//   - 指名加入（帶 room 參數）與自動配對（撿第一間空房）
//   - 循序房間 id，永不重用，空房保留待配
//   - 啟動時預建空房間池，消除首連建房延遲
//   - 容量上限 256 間，滿載即拒絕
//
// # 會話狀態機
//
// 每間房間持有一個 Idle ↔ Playing 狀態機：
//   - 載檔後的就緒門檻（兩端都回報 FILE_LOADED 才能啟動）
//   - 影格時脈以設定的影格率週期廣播 FRAME
//   - 任何入座、離座、載檔操作強制暫停，兩端觀察到一致的 PAUSE
//
// # 線上協議
//
// 訊息是一串整數 [type, arg0, arg1, ...]，
// 以逗號分隔的十進位文字承載，一則訊息佔一個傳輸框。
// 型別碼是循序整數，部署兩端必須一致。
//
// # 併發模型
//
// 同一條連接的訊息嚴格依序處理；兩位玩家的調度迴圈
// 加上房間自己的影格時脈可能同時操作共享狀態，
// 互斥由每間房間自己的鎖保證。廣播是射後不理：
// 慢速或已死的對端不會拖住另一位玩家。
//
// # 使用範例
//
// 啟動服務器：
//
//	manager := internal.NewManager(0, logger)
//	manager.PrecreateRooms(64)
//	hub := internal.NewHub(manager, logger)
//
//	mux := http.NewServeMux()
//	mux.Handle("/", internal.NewHandler(manager, logger).Routes())
//	mux.HandleFunc("/ws", hub.ServeWS)
//	log.Fatal(http.ListenAndServe(":3000", mux))
//
// 客戶端連接（自動配對）：
//
//	ws://localhost:3000/ws
//
// 客戶端連接（指名加入 7 號房）：
//
//	ws://localhost:3000/ws?room=7
package internal
