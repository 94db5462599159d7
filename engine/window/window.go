package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides the preview host window and its input events.
// Wraps the GLFW window behind a small interface so the driver never touches GLFW directly.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code (see common/key_codes.go)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragStartCallback sets the callback fired when the left mouse button goes down.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in screen coordinates
	SetDragStartCallback(callback func(x, y float32))

	// SetDragCallback sets the callback fired for each cursor move while the left button is held.
	// The delta is measured in screen coordinates so it stays correct while the window itself moves.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta since the previous drag event
	SetDragCallback(callback func(dx, dy float32))

	// SetDragEndCallback sets the callback fired when the left mouse button is released.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetDragEndCallback(callback func())

	// SetTitle updates the title shown by the window manager.
	//
	// Parameters:
	//   - title: the new title text
	SetTitle(title string)

	// Time returns seconds since the window system was initialised.
	// The clock is monotonic and is the one the driver feeds into motion ticks.
	//
	// Returns:
	//   - float64: elapsed seconds
	Time() float64

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for the window.
	// Used to request a GPU adapter compatible with the window's display.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title     string
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int
	width     int
	height    int

	// transparent requests a transparent framebuffer with no decorations.
	transparent bool

	// floating keeps the window above other windows.
	floating bool

	// dragMovesWindow repositions the window by the drag delta.
	dragMovesWindow bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	drag dragTracker

	onUpdate    func()
	onResize    func(width, height int)
	onKeyDown   func(keyCode uint32)
	onKeyUp     func(keyCode uint32)
	onDragStart func(x, y float32)
	onDrag      func(dx, dy float32)
	onDragEnd   func()
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
// Panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:           "oxy motion preview",
		maxWidth:        1600,
		maxHeight:       1600,
		minWidth:        160,
		minHeight:       200,
		width:           420,
		height:          640,
		dragMovesWindow: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.width < w.minWidth {
		w.width = w.minWidth
	}
	if w.height < w.minHeight {
		w.height = w.minHeight
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetDragStartCallback(callback func(x, y float32)) {
	w.onDragStart = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SetDragEndCallback(callback func()) {
	w.onDragEnd = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// pressLeft starts a drag at the given screen position.
func (w *engineWindow) pressLeft(x, y float32) {
	w.drag.press(x, y)
	if w.onDragStart != nil {
		w.onDragStart(x, y)
	}
}

// moveCursor reports a drag delta when the left button is held.
// Returns the delta and whether a drag was in progress.
func (w *engineWindow) moveCursor(x, y float32) (float32, float32, bool) {
	dx, dy, ok := w.drag.move(x, y)
	if ok && w.onDrag != nil {
		w.onDrag(dx, dy)
	}
	return dx, dy, ok
}

func (w *engineWindow) releaseLeft() {
	if !w.drag.release() {
		return
	}
	if w.onDragEnd != nil {
		w.onDragEnd()
	}
}
