// Package imaging loads user uploads and renders the viewport preview.
//
// This package covers everything the upload panel does with pixels: it
// validates and decodes uploaded files, caches decoded uploads, composes the
// pan/zoom transform onto a preview surface, prepares the bytes sent to the
// caption service and summarises an image's palette for deep analysis.
//
// # Coordinate Grid
//
// A preview can carry a grid drawn every N surface pixels, with optional
// "x,y" labels at each intersection, so a client can read pointer
// positions straight off the rendered image.
//
// # Upload Validation
//
// Uploads are accepted when all of the following hold:
//   - The payload is not empty
//   - The payload does not exceed the size limit (10 MB by default)
//   - The leading bytes identify PNG, JPEG, GIF or WebP
//   - The payload decodes with the registered decoder for that format
//
// The format is sniffed from the content; file extensions are ignored.
//
// # Coordinate System
//
// Surface coordinates are 0-based pixels with (0,0) at the top-left. A
// viewport transform places the image centred on the surface, scales it
// about its own centre and then translates it by the transform offset.
// Regions are half-open: Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and may be called concurrently on different images.
//
// # Encoding
//
// Previews are encoded as PNG. Uploads that are too large for the caption
// service are downscaled and re-encoded as JPEG.
package imaging
