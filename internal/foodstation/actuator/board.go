package actuator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// MotorChannel delivers door commands to a station's motor controller.
type MotorChannel interface {
	SetDoor(ctx context.Context, stationID string, pos types.DoorPosition) error
}

type Command struct {
	Position    types.DoorPosition
	CommandedAt time.Time
}

// CommandBoard is the MotorChannel used in production: it holds the latest
// command per station and the controller polls it over HTTP.
type CommandBoard struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

func NewCommandBoard() *CommandBoard {
	return &CommandBoard{cmds: make(map[string]Command)}
}

func (b *CommandBoard) SetDoor(ctx context.Context, stationID string, pos types.DoorPosition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stationID = strings.TrimSpace(stationID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmds[stationID] = Command{Position: pos, CommandedAt: time.Now().UTC()}
	return nil
}

// Pending returns the station's current command. Stations never commanded
// read as closed.
func (b *CommandBoard) Pending(stationID string) Command {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.cmds[stationID]
	if !ok {
		return Command{Position: types.DoorClosed}
	}
	return c
}
