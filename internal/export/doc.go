// Package export implements the Gmail-to-Markdown export pipeline:
// query building, paginated message listing, per-message fetch and
// parse, path resolution, and the orchestration loop that ties them
// together with partial-failure semantics.
//
// The package talks to Gmail only through the Transport interface, so
// any authenticated provider implementation can drive it. Rendering of
// parsed emails to Markdown is likewise abstracted behind the Renderer
// interface (implemented by internal/markdown).
package export
