package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomStatusAfter(t *testing.T) {
	cases := []struct {
		name     string
		current  RoomStatus
		occupied bool
		want     RoomStatus
	}{
		{"available gets occupied", RoomAvailable, true, RoomOccupied},
		{"occupied stays occupied", RoomOccupied, true, RoomOccupied},
		{"occupied gets vacated", RoomOccupied, false, RoomAvailable},
		{"available stays available", RoomAvailable, false, RoomAvailable},
		{"maintenance survives move-in", RoomMaintenance, true, RoomMaintenance},
		{"maintenance survives move-out", RoomMaintenance, false, RoomMaintenance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, roomStatusAfter(tc.current, tc.occupied))
		})
	}
}
