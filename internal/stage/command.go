package stage

import (
	"errors"
	"fmt"

	"github.com/inamate/zoompan/internal/telemetry"
	"github.com/inamate/zoompan/internal/viewport"
)

// CommandType names a gesture event delivered to a stage.
type CommandType string

const (
	CmdPinchBegin  CommandType = "pinch.begin"
	CmdPinchUpdate CommandType = "pinch.update"
	CmdPinchEnd    CommandType = "pinch.end"
	CmdPanBegin    CommandType = "pan.begin"
	CmdPanUpdate   CommandType = "pan.update"
	CmdPanEnd      CommandType = "pan.end"
	CmdCancel      CommandType = "cancel"
	CmdReset       CommandType = "reset"
)

// Known reports whether t is one of the command types above.
func (t CommandType) Known() bool {
	switch t {
	case CmdPinchBegin, CmdPinchUpdate, CmdPinchEnd, CmdPanBegin, CmdPanUpdate, CmdPanEnd, CmdCancel, CmdReset:
		return true
	}
	return false
}

var ErrUnknownCommand = errors.New("unknown command")

// Command is one gesture event with its payload. Only the fields relevant
// to Type are read.
type Command struct {
	Type    CommandType `json:"type"`
	OriginX float64     `json:"originX,omitempty"`
	OriginY float64     `json:"originY,omitempty"`
	Scale   float64     `json:"scale,omitempty"`
	TotalX  float64     `json:"totalX,omitempty"`
	TotalY  float64     `json:"totalY,omitempty"`
}

func (c Command) apply(e *viewport.Engine) (viewport.TransformResult, error) {
	t, err := c.dispatch(e)
	label := "unknown"
	if c.Type.Known() {
		label = string(c.Type)
	}
	telemetry.ObserveGesture(label, err)
	return t, err
}

func (c Command) dispatch(e *viewport.Engine) (viewport.TransformResult, error) {
	switch c.Type {
	case CmdPinchBegin:
		if err := e.BeginPinch(viewport.Point{X: c.OriginX, Y: c.OriginY}); err != nil {
			return e.AppliedTransform(), err
		}
	case CmdPinchUpdate:
		return e.UpdatePinch(c.Scale)
	case CmdPinchEnd:
		e.EndPinch()
	case CmdPanBegin:
		if err := e.BeginPan(); err != nil {
			return e.AppliedTransform(), err
		}
	case CmdPanUpdate:
		return e.UpdatePan(c.TotalX, c.TotalY)
	case CmdPanEnd:
		e.EndPan()
	case CmdCancel:
		e.Cancel()
	case CmdReset:
		return e.Reset()
	default:
		return e.AppliedTransform(), fmt.Errorf("%w %q", ErrUnknownCommand, c.Type)
	}
	return e.AppliedTransform(), nil
}
