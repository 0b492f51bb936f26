//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/zoompan/internal/viewport"
)

var (
	layout  = &viewport.Layout{}
	eng     *viewport.Engine
	zoompan js.Value
)

func main() {
	var err error
	eng, err = viewport.New(layout, viewport.SinkFunc(emit))
	if err != nil {
		js.Global().Get("console").Call("error", "zoompan: "+err.Error())
		return
	}

	zoompan = js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	zoompan.Set("setLayout", js.FuncOf(setLayout))
	zoompan.Set("beginPinch", js.FuncOf(beginPinch))
	zoompan.Set("updatePinch", js.FuncOf(updatePinch))
	zoompan.Set("endPinch", js.FuncOf(endPinch))
	zoompan.Set("beginPan", js.FuncOf(beginPan))
	zoompan.Set("updatePan", js.FuncOf(updatePan))
	zoompan.Set("endPan", js.FuncOf(endPan))
	zoompan.Set("cancel", js.FuncOf(cancel))
	zoompan.Set("reset", js.FuncOf(reset))

	// --- Queries (frontend ← engine) ---
	zoompan.Set("getCurrentTransform", js.FuncOf(getCurrentTransform))
	zoompan.Set("getAppliedTransform", js.FuncOf(getAppliedTransform))
	zoompan.Set("getBounds", js.FuncOf(getBounds))
	zoompan.Set("getMatrix", js.FuncOf(getMatrix))
	zoompan.Set("toContent", js.FuncOf(toContent))
	zoompan.Set("getState", js.FuncOf(getState))

	js.Global().Set("zoompanEngine", zoompan)
	js.Global().Set("zoompanWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// emit forwards every applied transform to zoompanEngine.onTransform when set.
func emit(t viewport.TransformResult) {
	cb := zoompan.Get("onTransform")
	if cb.Type() != js.TypeFunction {
		return
	}
	cb.Invoke(toJSON(t))
}

// --- Command Handlers ---

func setLayout(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing layout JSON")
	}

	var next viewport.Layout
	if err := json.Unmarshal([]byte(args[0].String()), &next); err != nil {
		return errorResult("invalid layout JSON: " + err.Error())
	}
	if err := next.Validate(); err != nil {
		return errorResult(err.Error())
	}

	*layout = next
	t, err := eng.Relayout()
	if err != nil {
		return errorResult(err.Error())
	}
	return toJSON(t)
}

func beginPinch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing pinch origin")
	}
	if err := eng.BeginPinch(viewport.Point{X: args[0].Float(), Y: args[1].Float()}); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func updatePinch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing scale delta")
	}
	t, err := eng.UpdatePinch(args[0].Float())
	if err != nil {
		return errorResult(err.Error())
	}
	return toJSON(t)
}

func endPinch(this js.Value, args []js.Value) interface{} {
	eng.EndPinch()
	return nil
}

func beginPan(this js.Value, args []js.Value) interface{} {
	if err := eng.BeginPan(); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func updatePan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing pan totals")
	}
	t, err := eng.UpdatePan(args[0].Float(), args[1].Float())
	if err != nil {
		return errorResult(err.Error())
	}
	return toJSON(t)
}

func endPan(this js.Value, args []js.Value) interface{} {
	eng.EndPan()
	return nil
}

func cancel(this js.Value, args []js.Value) interface{} {
	eng.Cancel()
	return nil
}

func reset(this js.Value, args []js.Value) interface{} {
	t, err := eng.Reset()
	if err != nil {
		return errorResult(err.Error())
	}
	return toJSON(t)
}

// --- Query Handlers ---

func getCurrentTransform(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.CurrentTransform())
}

func getAppliedTransform(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.AppliedTransform())
}

func getBounds(this js.Value, args []js.Value) interface{} {
	b, err := eng.Bounds()
	if err != nil {
		return errorResult(err.Error())
	}
	return toJSON(b)
}

// getMatrix returns the canvas setTransform arguments [a, b, c, d, e, f] for
// the applied transform, anchored at the content's rendered position.
func getMatrix(this js.Value, args []js.Value) interface{} {
	origin, _ := layout.ContentRenderedPosition()
	return toJSON(eng.AppliedTransform().Matrix(origin).ToSlice())
}

func toContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing point")
	}
	origin, _ := layout.ContentRenderedPosition()
	p := eng.AppliedTransform().ToContent(viewport.Point{X: args[0].Float(), Y: args[1].Float()}, origin)
	return toJSON(p)
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.State().String())
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(string(data))
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}
