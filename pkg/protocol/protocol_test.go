package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/panel"
)

const sampleJSON = `{
  "requestId": 7,
  "panels": [
    {"id": "main", "kind": "editor"},
    {"id": "sh", "kind": "terminal", "region": "bottom-left", "weight": 0.5},
    {"id": "raw", "sizeClass": "large", "aspectRatio": 2}
  ],
  "canvasWidth": 1600,
  "canvasHeight": 900,
  "previousIndex": {"main": {"x": 0, "y": 0, "width": 800, "height": 900}},
  "dragState": {"draggedId": "sh", "pointerX": 10, "pointerY": 20},
  "stabilityWeight": 0.3
}`

const sampleYAML = `requestId: 7
panels:
  - id: main
    kind: editor
  - id: sh
    kind: terminal
    region: bottom_left
    weight: 0.5
  - id: raw
    sizeClass: large
    aspectRatio: 2
canvasWidth: 1600
canvasHeight: 900
previousIndex:
  main: {x: 0, y: 0, width: 800, height: 900}
dragState:
  draggedId: sh
  pointerX: 10
  pointerY: 20
stabilityWeight: 0.3
`

func checkSample(t *testing.T, req Request) {
	t.Helper()
	assert.Equal(t, uint64(7), req.RequestID)
	assert.Equal(t, layout.Cell{Width: 1600, Height: 900}, req.Canvas())
	assert.Equal(t, 0.3, req.StabilityWeight)
	require.True(t, req.DragState.Active())
	assert.Equal(t, "sh", *req.DragState.DraggedID)
	assert.Equal(t, 10.0, *req.DragState.PointerX)

	prev := req.Previous()
	require.NotNil(t, prev.Lookup("main"))
	assert.Nil(t, prev.Lookup("sh"))

	panels := req.LayoutPanels()
	require.Len(t, panels, 3)
	assert.Equal(t, panel.New(panel.Editor, "main"), panels[0])

	sh := panels[1]
	assert.Equal(t, 0.5, sh.Weight)
	assert.Equal(t, layout.RegionBottomLeft, sh.Targets.Region)
	assert.Equal(t, panel.Terminal.Targets().AspectRatio, sh.Targets.AspectRatio)

	raw := panels[2]
	assert.Equal(t, 1.0, raw.Weight)
	assert.Equal(t, layout.Targets{Size: layout.SizeLarge, AspectRatio: 2, Region: layout.RegionCenter}, raw.Targets)
}

func TestDecodeRequest_JSON(t *testing.T) {
	req, err := DecodeRequest([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)
	checkSample(t, req)
	assert.NoError(t, Validate(req))
}

func TestDecodeRequest_YAML(t *testing.T) {
	req, err := DecodeRequest([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	checkSample(t, req)
}

func TestDecodeRequest_Errors(t *testing.T) {
	_, err := DecodeRequest([]byte("  "), FormatJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	_, err = DecodeRequest([]byte(`{"panels": [{"id": "a", "region": "middle"}]}`), FormatJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest), "unknown region: %v", err)

	_, err = DecodeRequest([]byte(`{"panels": [{"id": "a", "kind": "browser"}]}`), FormatJSON)
	assert.Error(t, err)

	_, err = DecodeRequest([]byte(`panels: [`), FormatYAML)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	_, err = DecodeRequest([]byte(`{}`), Format("toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
}

func TestReadRequestFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "req.json")
	yamlPath := filepath.Join(dir, "req.YML")
	require.NoError(t, os.WriteFile(jsonPath, []byte(sampleJSON), 0644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0644))

	a, err := ReadRequestFile(jsonPath)
	require.NoError(t, err)
	b, err := ReadRequestFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, a.LayoutPanels(), b.LayoutPanels())

	_, err = ReadRequestFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestReadRequest(t *testing.T) {
	req, err := ReadRequest(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	checkSample(t, req)
}

func TestValidate(t *testing.T) {
	w := func(v float64) *float64 { return &v }
	bad := panel.Kind(42)

	tests := []struct {
		name string
		req  Request
		code errors.Code
	}{
		{"ok", Request{CanvasWidth: 10, CanvasHeight: 10, Panels: []PanelSpec{{ID: "a"}}}, ""},
		{"zero canvas is fine", Request{Panels: []PanelSpec{{ID: "a"}}}, ""},
		{"non-positive ratio is clamped later", Request{Panels: []PanelSpec{{ID: "a", AspectRatio: w(-1)}}}, ""},
		{"negative canvas is empty", Request{CanvasWidth: -1, CanvasHeight: 10, Panels: []PanelSpec{{ID: "a"}}}, ""},
		{"nan canvas", Request{CanvasWidth: math.NaN()}, errors.ErrCodeInvalidRequest},
		{"stability out of range", Request{StabilityWeight: 1.5}, errors.ErrCodeInvalidRequest},
		{"empty id", Request{Panels: []PanelSpec{{ID: ""}}}, errors.ErrCodeInvalidPanel},
		{"duplicate id", Request{Panels: []PanelSpec{{ID: "a"}, {ID: "a"}}}, errors.ErrCodeInvalidPanel},
		{"negative weight", Request{Panels: []PanelSpec{{ID: "a", Weight: w(-1)}}}, errors.ErrCodeInvalidPanel},
		{"unknown kind", Request{Panels: []PanelSpec{{ID: "a", Kind: &bad}}}, errors.ErrCodeInvalidPanel},
		{"negative previous cell", Request{PreviousIndex: map[string]layout.Cell{"a": {Width: -1}}}, errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestResponseEncoding(t *testing.T) {
	resp := NewResponse(3, nil)
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, resp))
	assert.JSONEq(t, `{"requestId": 3, "assignments": []}`, buf.String())

	resp = NewResponse(4, []layout.Assignment{{
		PanelID: "a",
		Cell:    layout.Cell{X: 1, Y: 2, Width: 3, Height: 4},
		Score:   0.5,
	}})
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"requestId": 4, "assignments": [{"panelId": "a", "cell": {"x": 1, "y": 2, "width": 3, "height": 4}, "score": 0.5}]}`, string(data))

	assert.Equal(t, layout.PreviousIndex{"a": {X: 1, Y: 2, Width: 3, Height: 4}}, resp.Index())
}

func TestSpecForRoundTrip(t *testing.T) {
	p := layout.Panel{ID: "x", Weight: 3, Targets: layout.Targets{Size: layout.SizeSmall, AspectRatio: 0.4, Region: layout.RegionTop}}
	assert.Equal(t, p, SpecFor(p).Panel())
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("b.yml"))
	assert.Equal(t, FormatJSON, FormatForPath("b.json"))
	assert.Equal(t, FormatJSON, FormatForPath("-"))
}
