package common

// Key codes delivered by window key callbacks. Values match GLFW, which uses ASCII for printable keys.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyE     = 69  // E key (ASCII)
	KeyI     = 73  // I key (ASCII)
	KeyL     = 76  // L key (ASCII)
	KeyO     = 79  // O key (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeyX     = 88  // X key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)

	Key0 = 48 // 0 key (ASCII)
	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
)

// Additional non-printable keys
const (
	KeyLeftShift  = 340 // Left Shift (GLFW)
	KeyRightShift = 344 // Right Shift (GLFW)
)
