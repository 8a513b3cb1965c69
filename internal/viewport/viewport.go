package viewport

import "math"

// Mode is the interaction mode of a viewport.
type Mode int

const (
	// Idle means no drag is in progress.
	Idle Mode = iota
	// Dragging means the primary button is held and moves pan the image.
	Dragging
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Button identifies the pointer button that triggered a press.
type Button int

const (
	// ButtonPrimary is the main (usually left) button.
	ButtonPrimary Button = iota
	// ButtonAuxiliary is the middle button or wheel press.
	ButtonAuxiliary
	// ButtonSecondary is the context-menu (usually right) button.
	ButtonSecondary
)

// Direction selects a discrete zoom step.
type Direction int

const (
	// ZoomIn enlarges the image by StepFactor.
	ZoomIn Direction = iota
	// ZoomOut shrinks the image by StepFactor.
	ZoomOut
)

// ParseDirection converts "in" / "out" into a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "in":
		return ZoomIn, true
	case "out":
		return ZoomOut, true
	}
	return ZoomIn, false
}

// dragSession records where a drag started, so each move is computed as a
// single delta from the start rather than accumulated per event.
type dragSession struct {
	anchor       Point
	originOffset Point
}

// Viewport holds the pan/zoom state for one displayed image.
type Viewport struct {
	transform ViewTransform
	drag      *dragSession
	present   bool
}

// New returns an idle viewport with the identity transform and no image.
func New() *Viewport {
	return &Viewport{transform: Identity()}
}

// Transform returns the current transform.
func (v *Viewport) Transform() ViewTransform {
	return v.transform
}

// Mode returns the current interaction mode.
func (v *Viewport) Mode() Mode {
	if v.drag != nil {
		return Dragging
	}
	return Idle
}

// Dragging reports whether a drag session is active.
func (v *Viewport) Dragging() bool {
	return v.drag != nil
}

// ImagePresent reports the last presence signal received from the host.
func (v *Viewport) ImagePresent() bool {
	return v.present
}

// Cursor returns the cursor affordance for the surface: "pointer" when there
// is nothing to pan, otherwise "grab" or "grabbing".
func (v *Viewport) Cursor() string {
	switch {
	case !v.present:
		return "pointer"
	case v.drag != nil:
		return "grabbing"
	default:
		return "grab"
	}
}

// OnImagePresenceChange records whether an image is displayed. When the image
// goes away the transform is reset and any drag is dropped, so the next image
// starts at natural size and position.
func (v *Viewport) OnImagePresenceChange(present bool) {
	if v.present && !present {
		v.transform = Identity()
		v.drag = nil
	}
	v.present = present
}

// BeginDrag starts a pan at pos. It is ignored when no image is present or
// when button is not the primary button.
func (v *Viewport) BeginDrag(pos Point, button Button) {
	if !v.present || button != ButtonPrimary {
		return
	}
	v.drag = &dragSession{anchor: pos, originOffset: v.transform.Offset}
}

// UpdateDrag moves the image so that it follows the pointer. Without an active
// drag it does nothing.
func (v *Viewport) UpdateDrag(pos Point) {
	if v.drag == nil {
		return
	}
	v.transform.Offset = v.drag.originOffset.Add(pos.Sub(v.drag.anchor))
}

// EndDrag finishes the active drag, if any. It also handles the pointer
// leaving the surface.
func (v *Viewport) EndDrag() {
	v.drag = nil
}

// ZoomByWheel adjusts the scale from a wheel event. The offset is left as is,
// so zoom is centred on the image rather than on the cursor.
func (v *Viewport) ZoomByWheel(deltaY float64) {
	if !v.present || math.IsNaN(deltaY) {
		return
	}
	v.transform.Scale = clampScale(v.transform.Scale - deltaY*WheelSensitivity)
}

// ZoomStep applies one discrete zoom-in or zoom-out step.
func (v *Viewport) ZoomStep(dir Direction) {
	if !v.present {
		return
	}
	s := v.transform.Scale
	if dir == ZoomIn {
		s *= StepFactor
	} else {
		s /= StepFactor
	}
	v.transform.Scale = clampScale(s)
}

// ResetView restores the identity transform and cancels any active drag.
func (v *Viewport) ResetView() {
	v.transform = Identity()
	v.drag = nil
}
