package main

import (
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-motion/common"
	"github.com/Carmen-Shannon/oxy-motion/engine/model"
	"github.com/Carmen-Shannon/oxy-motion/engine/motion"
	"github.com/Carmen-Shannon/oxy-motion/engine/procedural"
	"github.com/Carmen-Shannon/oxy-motion/engine/stage"
)

// controls maps window input onto one avatar: keys drive clips and toggles, drags become signals.
type controls struct {
	coord  motion.Coordinator
	stage  stage.Stage
	id     string
	logger *slog.Logger

	hipHeight     float32
	actionSeconds float32

	// setProfiling receives profiler toggles; nil ignores the key.
	setProfiling func(enabled bool)
	profiling    bool
}

func (c *controls) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeySpace:
		c.coord.StartAction(c.actionSeconds)
		c.logger.Info("action window opened", "seconds", c.actionSeconds)
	case common.Key1:
		c.assign(motion.SlotIdle, lookAroundClip())
	case common.Key2:
		c.assign(motion.SlotWalk, strideClip(c.hipHeight))
	case common.Key0:
		c.coord.ClearSlot(motion.SlotIdle)
		c.coord.ClearSlot(motion.SlotWalk)
		c.logger.Info("slots cleared")
	case common.KeyE:
		c.coord.SetActionClip(waveClip(), false)
	case common.KeyX:
		c.coord.StopAction()
		c.coord.SetActionClip(nil, false)
	case common.KeyI:
		enabled := !c.coord.IdleConfig().Enabled
		cfg := c.coord.SetIdleConfig(procedural.IdlePatch{Enabled: &enabled})
		c.logger.Info("idle toggled", "enabled", cfg.Enabled)
	case common.KeyO:
		overlay := !c.coord.IdleConfig().OverlayOnAnimation
		cfg := c.coord.SetIdleConfig(procedural.IdlePatch{OverlayOnAnimation: &overlay})
		c.logger.Info("idle overlay toggled", "overlay", cfg.OverlayOnAnimation)
	case common.KeyL:
		enabled := !c.coord.WalkConfig().Enabled
		cfg := c.coord.SetWalkConfig(procedural.WalkPatch{Enabled: &enabled})
		c.logger.Info("walk toggled", "enabled", cfg.Enabled)
	case common.KeyP:
		if c.setProfiling != nil {
			c.profiling = !c.profiling
			c.setProfiling(c.profiling)
		}
	}
}

func (c *controls) assign(slot motion.Slot, clip *model.AnimationClip) {
	if !c.coord.ImportClip(clip) {
		c.logger.Warn("clip does not bind to the rig", "clip", clip.Name)
		return
	}
	c.coord.AssignLastLoadedToSlot(slot)
	c.logger.Info("clip assigned", "slot", slot.String(), "clip", clip.Name)
}

func (c *controls) dragStart(_, _ float32) {
	c.stage.SetSignals(c.id, motion.Signals{Dragging: true})
}

func (c *controls) drag(dx, dy float32) {
	d := float32(math.Hypot(float64(dx), float64(dy)))
	c.stage.SetSignals(c.id, motion.Signals{Dragging: true, DragDelta: d})
}

func (c *controls) dragEnd() {
	c.stage.SetSignals(c.id, motion.Signals{})
}
