package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_load",
		"mammo_preprocess",
		"region_grow_segment",
		"region_grow_overlay",
		"region_grow_batch",
		"mammo_read_markers",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok || len(props) == 0 {
				t.Fatal("InputSchema properties missing")
			}
			for name, p := range props {
				pm, ok := p.(map[string]interface{})
				if !ok {
					t.Errorf("property %s is not an object", name)
					continue
				}
				if pm["description"] == "" || pm["description"] == nil {
					t.Errorf("property %s has no description", name)
				}
			}
			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_Properties(t *testing.T) {
	tests := []struct {
		tool     string
		props    []string
		required []string
	}{
		{"image_load", []string{"path"}, []string{"path"}},
		{"mammo_preprocess", []string{"path", "image_base64", "size", "contrast_factor", "align", "remove_bar", "smoothing_radius", "normalize"}, nil},
		{"region_grow_segment", []string{"path", "image_base64", "connectivity", "max_iterations", "thresholds", "seeds", "preprocess"}, nil},
		{"region_grow_overlay", []string{"path", "seeds", "color", "opacity", "show_frontier"}, nil},
		{"region_grow_batch", []string{"paths", "output_dir", "workers", "thresholds", "size"}, []string{"paths"}},
		{"mammo_read_markers", []string{"path", "image_base64", "language"}, nil},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := toolMap[tt.tool]
			if !ok {
				t.Fatalf("tool %s not found", tt.tool)
			}
			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, p := range tt.props {
				if _, ok := props[p]; !ok {
					t.Errorf("missing property %s", p)
				}
			}
			required, _ := tool.InputSchema["required"].([]string)
			if len(required) != len(tt.required) {
				t.Fatalf("required: got %v, want %v", required, tt.required)
			}
			for i := range required {
				if required[i] != tt.required[i] {
					t.Errorf("required[%d]: got %s, want %s", i, required[i], tt.required[i])
				}
			}
		})
	}
}

func TestToolDefinitions_ConnectivityEnum(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		c, ok := props["connectivity"].(map[string]interface{})
		if !ok {
			continue
		}
		enum, ok := c["enum"].([]int)
		if !ok || len(enum) != 2 || enum[0] != 4 || enum[1] != 8 {
			t.Errorf("%s: connectivity enum = %v, want [4 8]", tool.Name, c["enum"])
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer()
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("got %d tools", len(tools))
	}
}

func TestMerge(t *testing.T) {
	a := map[string]interface{}{"x": 1, "y": 2}
	b := map[string]interface{}{"y": 3}
	m := merge(a, b)
	if m["x"] != 1 || m["y"] != 3 {
		t.Errorf("merge: got %v", m)
	}
	if a["y"] != 2 {
		t.Error("merge must not modify its inputs")
	}
}
