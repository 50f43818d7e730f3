package opener

import (
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/pkg/enum"
)

type Stage string

var (
	StageInitial   = enum.New(Stage("initial"), "initial")
	StageMedia     = enum.New(Stage("media"), "media")
	StageSelecting = enum.New(Stage("selecting"), "selecting")
	StageRevealing = enum.New(Stage("revealing"), "revealing")
	StageRevealed  = enum.New(Stage("revealed"), "revealed")
	StageDetails   = enum.New(Stage("details"), "details")
	StageThanking  = enum.New(Stage("thanking"), "thanking")
	StageDone      = enum.New(Stage("done"), "done")
)

// Resolve derives the stage a recipient resumes at from the persisted drop.
func Resolve(drop *entity.GiftDrop) Stage {
	switch {
	case drop.HasRecipientDetails():
		return StageThanking
	case drop.HasSelection():
		return StageRevealed
	case drop.IsOpened() && len(drop.GifterMedia) > 0:
		return StageMedia
	case drop.IsOpened():
		return StageSelecting
	default:
		return StageInitial
	}
}
