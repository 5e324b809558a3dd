package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/regiongrow-mcp/internal/annotation"
	"github.com/ironsheep/regiongrow-mcp/internal/batch"
	"github.com/ironsheep/regiongrow-mcp/internal/config"
	"github.com/ironsheep/regiongrow-mcp/internal/imaging"
	"github.com/ironsheep/regiongrow-mcp/internal/pipeline"
	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "region_grow_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errInvalidArguments marks failures caused by the caller's arguments; they
// are reported with the JSON-RPC invalid params code.
var errInvalidArguments = errors.New("invalid arguments")

func invalidArgs(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errInvalidArguments, fmt.Sprintf(format, args...))
}

// isInvalidParams reports whether err should map to -32602.
func isInvalidParams(err error) bool {
	return errors.Is(err, errInvalidArguments) || errors.Is(err, segment.ErrInvalidConfig) ||
		errors.Is(err, segment.ErrEmptyGrid)
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument and configuration errors return code -32602; any other tool
// failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	runID := uuid.NewString()
	log := s.log.With().Str("tool", params.Name).Str("run_id", runID).Logger()
	start := time.Now()

	result, err := s.executeTool(runID, params.Name, params.Arguments)
	if err != nil {
		if isInvalidParams(err) {
			log.Warn().Err(err).Msg("rejected tool call")
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("tool call failed")
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("tool call completed")

	return reply(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(result)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Overlays them on the server profile and validates the result
//  3. Loads the image from the cache or the inline payload
//  4. Runs the pipeline step the tool exposes
func (s *Server) executeTool(runID, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case toolImageLoad:
		return s.handleImageLoad(args)
	case toolPreprocess:
		return s.handlePreprocess(runID, args)
	case toolSegment:
		return s.handleSegment(runID, args)
	case toolOverlay:
		return s.handleOverlay(runID, args)
	case toolBatch:
		return s.handleBatch(args)
	case toolReadMarkers:
		return s.handleReadMarkers(args)
	default:
		return nil, invalidArgs("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidArgs("%v", err)
	}
	return nil
}

// === Shared argument groups ===

type sourceArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// loadSource returns the image named by path, or decoded from the inline
// payload when no path is given.
func (s *Server) loadSource(a sourceArgs) (image.Image, error) {
	switch {
	case a.Path != "":
		return s.cache.Load(a.Path)
	case a.ImageBase64 != "":
		img, _, err := imaging.DecodeBase64(a.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArguments, err)
		}
		return img, nil
	default:
		return nil, invalidArgs("either path or image_base64 is required")
	}
}

type preprocessArgs struct {
	Preprocess      *bool    `json:"preprocess"`
	Size            *int     `json:"size"`
	ContrastFactor  *float64 `json:"contrast_factor"`
	SmoothingRadius *float64 `json:"smoothing_radius"`
	Align           string   `json:"align"`
	RemoveBar       *bool    `json:"remove_bar"`
	Normalize       *bool    `json:"normalize"`
}

type segmentationArgs struct {
	Connectivity  *int            `json:"connectivity"`
	MaxIterations *int            `json:"max_iterations"`
	Thresholds    []float64       `json:"thresholds"`
	Seeds         []segment.Point `json:"seeds"`
}

type overlayArgs struct {
	Color        string   `json:"color"`
	Opacity      *float64 `json:"opacity"`
	ShowFrontier *bool    `json:"show_frontier"`
}

// profile applies per-call overrides to the server profile and validates the
// result.
func (s *Server) profile(p preprocessArgs, g segmentationArgs, o overlayArgs) (config.Config, error) {
	cfg := s.cfg

	if p.Size != nil {
		cfg.Preprocess.Size = *p.Size
	}
	if p.ContrastFactor != nil {
		cfg.Preprocess.ContrastFactor = *p.ContrastFactor
	}
	if p.SmoothingRadius != nil {
		cfg.Preprocess.SmoothingRadius = *p.SmoothingRadius
	}
	if p.Align != "" {
		align, err := imaging.ParseAlignSource(p.Align)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: %v", errInvalidArguments, err)
		}
		cfg.Preprocess.Align = align
	}
	if p.RemoveBar != nil {
		cfg.Preprocess.RemoveBar = *p.RemoveBar
	}
	if p.Normalize != nil {
		cfg.Preprocess.Normalize = *p.Normalize
	}

	if g.Connectivity != nil {
		cfg.Segmentation.Connectivity = segment.Connectivity(*g.Connectivity)
	}
	if g.MaxIterations != nil {
		cfg.Segmentation.MaxIterations = *g.MaxIterations
	}
	if g.Thresholds != nil {
		cfg.Segmentation.Thresholds = g.Thresholds
	}
	if g.Seeds != nil {
		cfg.Segmentation.Seeds = g.Seeds
	}

	if o.Color != "" {
		cfg.Overlay.Color = o.Color
	}
	if o.Opacity != nil {
		cfg.Overlay.Opacity = *o.Opacity
	}
	if o.ShowFrontier != nil {
		cfg.Overlay.ShowFrontier = *o.ShowFrontier
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return cfg, nil
}

func pipelineOptions(cfg config.Config, p preprocessArgs) pipeline.Options {
	return pipeline.Options{
		Segmentation:   cfg.Segmentation,
		Preprocess:     cfg.Preprocess,
		SkipPreprocess: p.Preprocess != nil && !*p.Preprocess,
		OCRLanguage:    cfg.OCRLanguage,
	}
}

// === Tool handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidArgs("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type preprocessToolArgs struct {
	sourceArgs
	preprocessArgs
}

type preprocessResponse struct {
	RunID   string                    `json:"run_id"`
	Image   *imaging.ImageResult      `json:"image"`
	Report  *imaging.PreprocessReport `json:"report"`
	Markers *annotation.Markers       `json:"markers,omitempty"`
}

func (s *Server) handlePreprocess(runID string, args json.RawMessage) (interface{}, error) {
	var a preprocessToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := s.profile(a.preprocessArgs, segmentationArgs{}, overlayArgs{})
	if err != nil {
		return nil, err
	}
	img, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}

	opts := pipelineOptions(cfg, a.preprocessArgs)
	opts.SkipPreprocess = false
	grid, report, markers, err := pipeline.Prepare(img, opts, s.log.With().Str("run_id", runID).Logger())
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(imaging.GrayFromGrid(grid))
	if err != nil {
		return nil, err
	}
	return &preprocessResponse{RunID: runID, Image: encoded, Report: report, Markers: markers}, nil
}

type segmentToolArgs struct {
	sourceArgs
	preprocessArgs
	segmentationArgs
}

type segmentResponse struct {
	RunID       string                     `json:"run_id"`
	Image       *imaging.ImageResult       `json:"image"`
	Threshold   float64                    `json:"threshold"`
	Rung        int                        `json:"rung"`
	Attempts    []segment.Attempt          `json:"attempts"`
	Stats       segment.RunStats           `json:"stats"`
	Measurement *imaging.RegionMeasurement `json:"measurement"`
	Preprocess  *imaging.PreprocessReport  `json:"preprocess,omitempty"`
	Markers     *annotation.Markers        `json:"markers,omitempty"`
}

func newSegmentResponse(out *pipeline.Output, encoded *imaging.ImageResult) *segmentResponse {
	res := out.Result
	return &segmentResponse{
		RunID:       out.RunID,
		Image:       encoded,
		Threshold:   res.Threshold,
		Rung:        res.Rung,
		Attempts:    res.Attempts,
		Stats:       res.Stats,
		Measurement: out.Measurement,
		Preprocess:  out.Report,
		Markers:     out.Markers,
	}
}

// runSegmentation shares argument handling between the segment and overlay
// tools.
func (s *Server) runSegmentation(runID string, src sourceArgs, p preprocessArgs, g segmentationArgs,
	o overlayArgs) (*pipeline.Output, config.Config, error) {

	cfg, err := s.profile(p, g, o)
	if err != nil {
		return nil, config.Config{}, err
	}
	img, err := s.loadSource(src)
	if err != nil {
		return nil, config.Config{}, err
	}
	out, err := pipeline.SegmentWithID(runID, img, pipelineOptions(cfg, p), s.log)
	if err != nil {
		return nil, config.Config{}, err
	}
	return out, cfg, nil
}

func (s *Server) handleSegment(runID string, args json.RawMessage) (interface{}, error) {
	var a segmentToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	out, _, err := s.runSegmentation(runID, a.sourceArgs, a.preprocessArgs, a.segmentationArgs, overlayArgs{})
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(out.Result.Output)
	if err != nil {
		return nil, err
	}
	return newSegmentResponse(out, encoded), nil
}

type overlayToolArgs struct {
	sourceArgs
	preprocessArgs
	segmentationArgs
	overlayArgs
}

func (s *Server) handleOverlay(runID string, args json.RawMessage) (interface{}, error) {
	var a overlayToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	out, cfg, err := s.runSegmentation(runID, a.sourceArgs, a.preprocessArgs, a.segmentationArgs, a.overlayArgs)
	if err != nil {
		return nil, err
	}
	overlay, err := imaging.RenderOverlay(imaging.GrayFromGrid(out.Grid), out.Result.Map, cfg.Overlay)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(overlay)
	if err != nil {
		return nil, err
	}
	return newSegmentResponse(out, encoded), nil
}

type batchToolArgs struct {
	Paths     []string `json:"paths"`
	OutputDir string   `json:"output_dir"`
	Workers   *int     `json:"workers"`
	preprocessArgs
	segmentationArgs
}

type batchResponse struct {
	Summary batch.Summary          `json:"summary"`
	Results []pipeline.FileOutcome `json:"results"`
}

func (s *Server) handleBatch(args json.RawMessage) (interface{}, error) {
	var a batchToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, invalidArgs("paths must name at least one image")
	}
	cfg, err := s.profile(a.preprocessArgs, a.segmentationArgs, overlayArgs{})
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if a.Workers != nil {
		if *a.Workers < 1 {
			return nil, invalidArgs("workers must be at least 1, got %d", *a.Workers)
		}
		workers = *a.Workers
	}
	if a.OutputDir != "" {
		if err := os.MkdirAll(a.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	outcomes, summary := pipeline.SegmentFiles(s.ctx, s.cache, a.Paths, a.OutputDir, workers,
		pipelineOptions(cfg, a.preprocessArgs), s.log)
	return &batchResponse{Summary: summary, Results: outcomes}, nil
}

type readMarkersArgs struct {
	sourceArgs
	Language string `json:"language"`
}

func (s *Server) handleReadMarkers(args json.RawMessage) (interface{}, error) {
	var a readMarkersArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	lang := a.Language
	if lang == "" {
		lang = s.cfg.OCRLanguage
	}
	markers, err := annotation.ReadMarkers(img, lang)
	if err != nil {
		return nil, err
	}
	return readMarkersResponse{Markers: markers, Engine: annotation.Engine()}, nil
}

type readMarkersResponse struct {
	*annotation.Markers
	Engine annotation.EngineInfo `json:"engine"`
}
