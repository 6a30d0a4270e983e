package message

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionLock_FixedStripes(t *testing.T) {
	uc := NewSendMessageUseCase(nil, nil, nil)
	sessionID := uuid.New()

	assert.Same(t, uc.sessionLock(sessionID), uc.sessionLock(sessionID))

	used := make(map[int]struct{})
	for i := 0; i < 10000; i++ {
		stripe := lockStripe(uuid.New())
		assert.GreaterOrEqual(t, stripe, 0)
		assert.Less(t, stripe, sendLockStripes)
		used[stripe] = struct{}{}
	}
	assert.LessOrEqual(t, len(used), sendLockStripes)
	assert.Greater(t, len(used), sendLockStripes/2)
}
