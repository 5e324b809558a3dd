package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tool names.
const (
	toolImageLoad   = "image_load"
	toolPreprocess  = "mammo_preprocess"
	toolSegment     = "region_grow_segment"
	toolOverlay     = "region_grow_overlay"
	toolBatch       = "region_grow_batch"
	toolReadMarkers = "mammo_read_markers"
)

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

// merge copies every property map into a new one; later maps win.
func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// sourceProperties accept the image as a file path or inline base64.
func sourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":         prop("string", "Absolute path to the image file (PNG, JPEG, GIF, TIFF, BMP or PGM)"),
		"image_base64": prop("string", "Image bytes as base64, optionally as a data URL. Used when path is empty"),
	}
}

func segmentationProperties() map[string]interface{} {
	return map[string]interface{}{
		"connectivity": map[string]interface{}{
			"type":        "integer",
			"enum":        []int{4, 8},
			"description": "Neighbourhood used to grow the region. Default from profile (4)",
		},
		"max_iterations": prop("integer", "Per-seed iteration cap before a non-terminal rung is abandoned. Default 6200"),
		"thresholds": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
			"description": "Threshold ladder, most permissive first; the last rung never aborts. Default [60,40,30,20,10,5,2.5]",
		},
		"seeds": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"row": prop("integer", "Row (0-based, from top)"),
					"col": prop("integer", "Column (0-based, from left)"),
				},
				"required": []string{"row", "col"},
			},
			"description": "Seed pixels in the working grid. Default [{row:1,col:1}]",
		},
	}
}

func preprocessProperties() map[string]interface{} {
	return map[string]interface{}{
		"preprocess": map[string]interface{}{
			"type":        "boolean",
			"description": "Run contrast, resize, alignment, bar removal and normalization first. Default true",
			"default":     true,
		},
		"size":             prop("integer", "Square working size in pixels; 0 keeps the original. Default 256"),
		"contrast_factor":  prop("number", "Contrast enhancement factor; 1 disables. Default 1.3"),
		"smoothing_radius": prop("number", "Gaussian blur radius applied after bar removal; 0 disables. Default 0"),
		"align": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"intensity", "markers", "none"},
			"description": "How to decide whether to mirror the image so the breast is on the left. Default intensity",
		},
		"remove_bar": prop("boolean", "Crop the dark scanner bar along the left edge. Default true"),
		"normalize":  prop("boolean", "Stretch intensities to 0..255. Default true"),
	}
}

func overlayProperties() map[string]interface{} {
	return map[string]interface{}{
		"color":         prop("string", "Highlight color as hex (e.g. '#FF3030')"),
		"opacity":       prop("number", "Highlight opacity 0..1. Default 0.5"),
		"show_frontier": prop("boolean", "Also tint pixels left on the region boundary. Default false"),
	}
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        toolImageLoad,
			Description: "Load an image file and return its dimensions, format, bit depth and whether it is grayscale. The decoded image is cached for later calls.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        toolPreprocess,
			Description: "Prepare a mammogram for segmentation: contrast enhancement, resize, left alignment, scanner bar removal, optional smoothing and normalization. Returns the working image as base64 PNG and a report of the applied steps.",
			InputSchema: objectSchema(merge(sourceProperties(), preprocessProperties())),
		},
		{
			Name:        toolSegment,
			Description: "Grow a region from the seed pixels by absorbing the neighbour closest to the region's running mean, escalating through a threshold ladder until a run finishes within the iteration cap. Returns the composited image (region blanked to 0, leftover boundary at 150) as base64 PNG with the accepted threshold, per-rung attempts, run statistics and region measurements.",
			InputSchema: objectSchema(merge(sourceProperties(), preprocessProperties(), segmentationProperties())),
		},
		{
			Name:        toolOverlay,
			Description: "Run region_grow_segment and return the working image with the grown region highlighted in color instead of blanked.",
			InputSchema: objectSchema(merge(sourceProperties(), preprocessProperties(), segmentationProperties(), overlayProperties())),
		},
		{
			Name:        toolBatch,
			Description: "Segment many image files in parallel. Each result is optionally written to output_dir as <name>_segmented.png. Failures are reported per file.",
			InputSchema: objectSchema(merge(
				map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the images to segment",
					},
					"output_dir": prop("string", "Directory for <name>_segmented.png outputs. Omit to only report statistics"),
					"workers":    prop("integer", "Maximum images processed at once. Default from profile"),
				},
				preprocessProperties(),
				segmentationProperties(),
			), "paths"),
		},
		{
			Name:        toolReadMarkers,
			Description: "OCR the burned-in annotations of a mammogram and report laterality (L/R) and view (CC/MLO) when found.",
			InputSchema: objectSchema(merge(sourceProperties(), map[string]interface{}{
				"language": prop("string", "Tesseract language code. Default 'eng'"),
			})),
		},
	}
}

func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return reply(req.ID, map[string]interface{}{"tools": GetToolDefinitions()})
}
