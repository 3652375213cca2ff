package internal_test

import (
	"testing"

	"github.com/koopa0/netplay-sync/internal"
	"github.com/stretchr/testify/assert"
)

// TestEncode 測試訊息編碼
func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		msg      int
		args     []int
		expected string
	}{
		{
			name:     "type only",
			msg:      internal.MsgPause,
			args:     nil,
			expected: "4",
		},
		{
			name:     "type with one arg",
			msg:      internal.MsgLoadFile,
			args:     []int{7},
			expected: "9,7",
		},
		{
			name:     "type with two args",
			msg:      internal.MsgButtonDown,
			args:     []int{12, 1},
			expected: "1,12,1",
		},
		{
			name:     "negative arg",
			msg:      internal.MsgButtonUp,
			args:     []int{-3, 2},
			expected: "2,-3,2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(internal.Encode(tt.msg, tt.args...)))
		})
	}
}

// TestDecode 測試訊息解碼
func TestDecode(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		expectedMsg  int
		expectedArgs []int
	}{
		{
			name:         "type only",
			data:         "8",
			expectedMsg:  internal.MsgClose,
			expectedArgs: []int{},
		},
		{
			name:         "type with args",
			data:         "1,12,1",
			expectedMsg:  internal.MsgButtonDown,
			expectedArgs: []int{12, 1},
		},
		{
			name:         "signed args",
			data:         "2,-7,+3",
			expectedMsg:  internal.MsgButtonUp,
			expectedArgs: []int{-7, 3},
		},
		{
			name:         "non-numeric arg becomes sentinel",
			data:         "3,abc",
			expectedMsg:  internal.MsgPlay,
			expectedArgs: []int{internal.NotANumber},
		},
		{
			name:         "non-numeric type becomes sentinel",
			data:         "xyz,5",
			expectedMsg:  internal.NotANumber,
			expectedArgs: []int{5},
		},
		{
			name:         "empty frame",
			data:         "",
			expectedMsg:  internal.NotANumber,
			expectedArgs: []int{},
		},
		{
			name:         "surrounding whitespace tolerated",
			data:         "3, 30",
			expectedMsg:  internal.MsgPlay,
			expectedArgs: []int{30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, args := internal.Decode([]byte(tt.data))
			assert.Equal(t, tt.expectedMsg, msg)
			assert.Equal(t, tt.expectedArgs, args)
		})
	}
}

// TestMessageRoundTrip 測試編解碼往返
func TestMessageRoundTrip(t *testing.T) {
	data := internal.Encode(internal.MsgPlay, 30)

	msg, args := internal.Decode(data)

	assert.Equal(t, internal.MsgPlay, msg)
	assert.Equal(t, []int{30}, args)
}
