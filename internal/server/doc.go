// Package server implements the MCP (Model Context Protocol) server for
// mammogram region-growing segmentation.
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its metadata
//   - mammo_preprocess: Contrast, resize, alignment, bar removal, normalization
//   - region_grow_segment: Preprocess, grow the region and return the composite
//   - region_grow_overlay: Same pipeline, region drawn as a colored highlight
//   - region_grow_batch: Segment many files on a worker pool
//   - mammo_read_markers: OCR the laterality and view annotations
//
// Images are given either as an absolute path or inline as base64
// ("image_base64"). Segmentation and preprocessing arguments are optional;
// missing ones come from the server profile (see package config).
//
// # Image Caching
//
// Images loaded by path are cached for the lifetime of the process and reused
// across tool calls. Batch calls evict the images they loaded once processed.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC error responses:
//   - code -32602 (invalid params) for bad arguments, including every
//     segmentation configuration error
//   - code -32000 for failures while running the tool, such as an unreadable
//     file or a ladder whose every rung aborted
//
// The data field carries the Go error string.
//
// # Logging
//
// Logs are structured (zerolog) and go to stderr; each tool call is logged
// with its tool name and run ID.
//
// # Usage
//
//	srv := server.New(cfg, logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal().Err(err).Msg("server error")
//	}
package server
