package internal_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koopa0/netplay-sync/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doGet 發出 GET 請求並解碼 JSON 響應
func doGet(t *testing.T, server *httptest.Server, path string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// TestHandler_Health 測試健康檢查端點
func TestHandler_Health(t *testing.T) {
	manager := internal.NewManager(0, testLogger())
	handler := internal.NewHandler(manager, testLogger())
	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	status, body := doGet(t, server, "/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["time"])
}

// TestHandler_Stats 測試統計端點
func TestHandler_Stats(t *testing.T) {
	manager := internal.NewManager(0, testLogger())
	manager.PrecreateRooms(5)

	room, err := manager.FindRoom(1)
	require.NoError(t, err)
	_, err = room.Join(&fakeConn{})
	require.NoError(t, err)

	handler := internal.NewHandler(manager, testLogger())
	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	status, body := doGet(t, server, "/stats")

	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 5, body["total_rooms"])
	assert.EqualValues(t, 1, body["occupied_rooms"])
	assert.EqualValues(t, 0, body["playing_rooms"])
	assert.EqualValues(t, 1, body["total_players"])
}

// TestHandler_MethodNotAllowed 測試路由只接受 GET
func TestHandler_MethodNotAllowed(t *testing.T) {
	manager := internal.NewManager(0, testLogger())
	handler := internal.NewHandler(manager, testLogger())
	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	resp, err := http.Post(server.URL+"/health", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
