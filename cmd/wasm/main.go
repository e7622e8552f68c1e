//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/canvas"
	"github.com/vectorpad/vectorpad/internal/scene"
	"github.com/vectorpad/vectorpad/internal/typeid"
)

var editor *canvas.Editor

func main() {
	editor = canvas.NewEditor(scene.NewSampleStore())

	// Locally produced operations are handed to the frontend, which forwards
	// them over the websocket as op.submit messages.
	editor.SetMutationObserver(func(op scene.Operation) {
		onOp := js.Global().Get("vectorpadOnOperation")
		if onOp.Type() != js.TypeFunction {
			return
		}
		data, err := json.Marshal(op)
		if err != nil {
			return
		}
		onOp.Invoke(string(data))
	})

	api := js.Global().Get("Object").New()

	// --- Input events (frontend → editor) ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("keyUp", js.FuncOf(keyUp))
	api.Set("setVirtualShift", js.FuncOf(setVirtualShift))

	// --- Commands ---
	api.Set("setMode", js.FuncOf(setMode))
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("loadScene", js.FuncOf(loadScene))
	api.Set("applyRemoteOperation", js.FuncOf(applyRemoteOperation))
	api.Set("clearSelection", js.FuncOf(clearSelection))

	// --- Queries ---
	api.Set("getMode", js.FuncOf(getMode))
	api.Set("getScene", js.FuncOf(getScene))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getTransformFeedback", js.FuncOf(getTransformFeedback))
	api.Set("getGuidelines", js.FuncOf(getGuidelines))
	api.Set("getClientID", js.FuncOf(getClientID))

	js.Global().Set("vectorpadEditor", api)
	js.Global().Set("vectorpadWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Input Handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	p := editor.ToScene(curve.Pt(args[0].Float(), args[1].Float()))
	target := "canvas"
	if len(args) > 2 && args[2].Type() == js.TypeString {
		target = args[2].String()
	}
	editor.PointerDown(p, target)
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	editor.PointerMove(editor.ToScene(curve.Pt(args[0].Float(), args[1].Float())))
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	p := editor.ToScene(curve.Pt(args[0].Float(), args[1].Float()))
	target := "canvas"
	if len(args) > 2 && args[2].Type() == js.TypeString {
		target = args[2].String()
	}
	editor.PointerUp(p, target)
	return nil
}

func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	editor.KeyDown(args[0].String())
	return nil
}

func keyUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	editor.KeyUp(args[0].String())
	return nil
}

func setVirtualShift(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	editor.SetVirtualShift(args[0].Bool())
	return nil
}

// --- Command Handlers ---

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing mode id"})
	}
	res := editor.SetMode(args[0].String())
	return js.ValueOf(map[string]interface{}{
		"changed": res.Changed,
		"mode":    res.Mode,
		"reason":  string(res.Reason),
	})
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	editor.SetViewport(canvas.Viewport{
		Zoom: args[0].Float(),
		PanX: args[1].Float(),
		PanY: args[2].Float(),
	})
	return nil
}

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing scene JSON"})
	}
	var elements []*scene.Element
	if err := json.Unmarshal([]byte(args[0].String()), &elements); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	if err := editor.ReplaceScene(elements); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func applyRemoteOperation(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing operation JSON"})
	}
	var op scene.Operation
	if err := json.Unmarshal([]byte(args[0].String()), &op); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	if err := editor.ApplyExternal(op); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	editor.Selection().ClearSelection()
	return nil
}

// --- Query Handlers ---

func getMode(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(editor.Mode())
}

func getScene(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(editor.Scene().Snapshot())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	sel := editor.Selection()
	out := map[string]interface{}{
		"elements": sel.Elements(),
		"subpaths": sel.Subpaths(),
		"points":   sel.Points(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	ids := editor.Selection().Elements()
	b, ok := editor.Scene().SelectionBounds(ids)
	if !ok {
		return js.ValueOf("null")
	}
	data, _ := json.Marshal(map[string]float64{
		"x0": b.X0, "y0": b.Y0, "x1": b.X1, "y1": b.Y1,
	})
	return js.ValueOf(string(data))
}

func getTransformFeedback(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(editor.Transform().Feedback())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getGuidelines(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(editor.Guidelines())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

var clientID = typeid.NewClientID()

func getClientID(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(clientID)
}
