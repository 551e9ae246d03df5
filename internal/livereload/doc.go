// Package livereload broadcasts rebuild events to browsers and tools over
// socket.io while a watch session runs, next to a /health endpoint on the
// same HTTP server. Listen is the matching client used by `assetgrid listen`.
package livereload
