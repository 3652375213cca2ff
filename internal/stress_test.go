package internal_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koopa0/netplay-sync/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStress_ConcurrentRoomCreation 測試併發創建房間
func TestStress_ConcurrentRoomCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	manager := internal.NewManager(0, testLogger())

	const (
		numGoroutines     = 100
		roomsPerGoroutine = 10
	)

	var (
		wg           sync.WaitGroup
		successCount int32
		errorCount   int32
	)

	start := time.Now()

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < roomsPerGoroutine; j++ {
				if _, err := manager.CreateRoom(); err != nil {
					atomic.AddInt32(&errorCount, 1)
				} else {
					atomic.AddInt32(&successCount, 1)
				}
			}
		}()
	}

	wg.Wait()
	duration := time.Since(start)

	t.Logf("創建房間壓力測試結果:")
	t.Logf("  總請求數: %d", numGoroutines*roomsPerGoroutine)
	t.Logf("  成功: %d", successCount)
	t.Logf("  失敗: %d", errorCount)
	t.Logf("  耗時: %v", duration)

	// 容量上限必須精確生效，id 不重覆也不跳號
	assert.Equal(t, int32(internal.MaxRooms), successCount)
	assert.Equal(t, internal.MaxRooms, manager.Stats()["total_rooms"])

	for id := 1; id <= internal.MaxRooms; id++ {
		_, err := manager.FindRoom(id)
		require.NoError(t, err)
	}
}

// TestStress_ConcurrentJoinLeave 測試同一間房的併發入離座
func TestStress_ConcurrentJoinLeave(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	room := internal.NewRoom(1)

	const (
		numGoroutines     = 50
		joinsPerGoroutine = 100
	)

	var (
		wg           sync.WaitGroup
		joinCount    int32
		rejectCount  int32
		overCapacity int32
	)

	start := time.Now()

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < joinsPerGoroutine; j++ {
				player, err := room.Join(&fakeConn{})
				if err != nil {
					atomic.AddInt32(&rejectCount, 1)
					continue
				}
				atomic.AddInt32(&joinCount, 1)

				if n := room.NumPlayers(); n > internal.PlayersPerRoom {
					atomic.AddInt32(&overCapacity, 1)
				}
				room.RemovePlayer(player)
			}
		}()
	}

	wg.Wait()
	duration := time.Since(start)

	t.Logf("入離座壓力測試結果:")
	t.Logf("  成功入座: %d", joinCount)
	t.Logf("  滿房拒絕: %d", rejectCount)
	t.Logf("  耗時: %v", duration)

	// 任何時刻在座人數都不得超過上限，全部離座後歸零
	assert.Equal(t, int32(0), overCapacity)
	assert.Equal(t, 0, room.NumPlayers())
	assert.False(t, room.IsPlaying())
}

// TestStress_BroadcastStorm 測試時脈運轉下的併發廣播
func TestStress_BroadcastStorm(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	room := internal.NewRoom(1)
	conn1, conn2 := &fakeConn{}, &fakeConn{}
	_, err := room.Join(conn1)
	require.NoError(t, err)
	_, err = room.Join(conn2)
	require.NoError(t, err)

	room.FileLoaded(1, 1)
	room.FileLoaded(1, 2)
	room.Start(100)
	require.True(t, room.IsPlaying())

	const (
		numGoroutines     = 20
		sendsPerGoroutine = 200
	)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			for j := 0; j < sendsPerGoroutine; j++ {
				room.Broadcast(internal.MsgButtonDown, j, id%2+1)
			}
		}(i)
	}

	wg.Wait()
	room.Stop()
	duration := time.Since(start)

	total := numGoroutines * sendsPerGoroutine
	t.Logf("廣播風暴壓力測試結果:")
	t.Logf("  廣播次數: %d", total)
	t.Logf("  conn1 按鍵訊息: %d", conn1.countOf(internal.MsgButtonDown))
	t.Logf("  conn1 影格訊息: %d", conn1.countOf(internal.MsgFrame))
	t.Logf("  耗時: %v", duration)

	// 假連接從不丟訊息：每一次廣播兩端都要收到
	assert.Equal(t, total, conn1.countOf(internal.MsgButtonDown))
	assert.Equal(t, total, conn2.countOf(internal.MsgButtonDown))

	// 時脈已同步取消
	frames := conn1.countOf(internal.MsgFrame)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frames, conn1.countOf(internal.MsgFrame))
}
