package chatrooms

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const handlePrefix = "room_"

type UUIDAllocator struct {
	newID func() (uuid.UUID, error)
}

func NewUUIDAllocator() *UUIDAllocator {
	return &UUIDAllocator{newID: uuid.NewRandom}
}

func (a *UUIDAllocator) Allocate(_ context.Context, userA, userB string) (string, error) {
	if strings.TrimSpace(userA) == "" || strings.TrimSpace(userB) == "" {
		return "", fmt.Errorf("chat room participants are required")
	}

	id, err := a.newID()
	if err != nil {
		return "", fmt.Errorf("generate chat room id: %w", err)
	}
	return handlePrefix + id.String(), nil
}

func IsHandle(value string) bool {
	if !strings.HasPrefix(value, handlePrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(value, handlePrefix))
	return err == nil
}
