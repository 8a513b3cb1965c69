// Package viewport implements the pan/zoom state machine behind the image
// preview of the upload panel.
//
// A Viewport owns exactly one ViewTransform and at most one drag session. It
// translates pointer, wheel and zoom-button input into transform changes and
// exposes the result as a plain value that a host applies to whatever surface
// it renders on.
//
// # Coordinate System
//
// Offsets are measured in surface pixels relative to the image's natural,
// centred position. X increases rightward and Y increases downward, matching
// pointer coordinates. Scaling is applied about the image centre, before the
// offset translation.
//
// # Interaction Modes
//
// There are two modes:
//   - Idle: no pointer button is held on the surface
//   - Dragging: the primary button went down over an image and has not been
//     released, and the pointer has not left the surface
//
// Zoom operations are valid in either mode.
//
// # Totality
//
// No operation returns an error. Calls that make no sense in the current
// state (moving without a drag, zooming without an image) leave the state
// untouched.
//
// # Thread Safety
//
// A Viewport is not safe for concurrent use. It is meant to be driven from a
// single event loop; hosts that receive input from several goroutines must
// serialise access themselves.
package viewport
