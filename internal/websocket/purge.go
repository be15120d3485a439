package websocket

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

var purgePattern = regexp.MustCompile(`^/purge (\d+)$`)

// parsePurge recognises "/purge <n>" in raw message content.
func parsePurge(content string) (int, bool) {
	m := purgePattern.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// purge deletes the newest count messages of a room, newest first, and
// announces each deletion. It stops early when the room runs out.
func (h *Hub) purge(ctx context.Context, roomCode string, count int) error {
	msgs, err := h.store.RoomMessages(ctx, roomCode)
	if err != nil {
		return fmt.Errorf("internal/websocket: purge %s: %w", roomCode, err)
	}

	for i := len(msgs) - 1; i >= 0 && count > 0; i-- {
		if err := h.deleteAndAnnounce(ctx, msgs[i]); err != nil {
			return err
		}
		count--
	}
	return nil
}
