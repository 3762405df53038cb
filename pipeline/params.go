package pipeline

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/overlay"
	"github.com/pdfwala/pdfops/pageops"
)

// Request field names.
const (
	FieldOrder     = "order"
	FieldRotate    = "rotate"
	FieldText      = "text"
	FieldOpacity   = "opacity"
	FieldPosition  = "position"
	FieldAlignment = "alignment"
	FieldStartPage = "startPage"
	FieldAngle     = "angle"
	FieldPages     = "pages"
)

// ParseOrganizeParams reads the order and rotate fields.
//
// order is a JSON array of 0-based source page indices; when absent or null
// every page is kept in place. rotate is either a JSON object mapping source
// indices to degrees ({"0": 90}) or a JSON array of degrees by source index,
// where null entries are skipped.
func ParseOrganizeParams(values url.Values) (pageops.OrganizeOptions, error) {
	var opts pageops.OrganizeOptions

	if raw := strings.TrimSpace(values.Get(FieldOrder)); raw != "" {
		var order []int
		if err := json.Unmarshal([]byte(raw), &order); err != nil {
			return opts, pdfops.Errorf("ParseOrganizeParams", pdfops.ErrValidation, "malformed order: %v", err)
		}
		// A JSON null leaves Order nil, which keeps every page.
		opts.Order = order
	}

	if raw := strings.TrimSpace(values.Get(FieldRotate)); raw != "" {
		rotate, err := parseRotate(raw)
		if err != nil {
			return opts, pdfops.Errorf("ParseOrganizeParams", pdfops.ErrValidation, "malformed rotate: %v", err)
		}
		opts.Rotate = rotate
	}

	return opts, nil
}

func parseRotate(raw string) (map[int]int, error) {
	if strings.HasPrefix(raw, "[") {
		var list []*int
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, err
		}
		rotate := make(map[int]int, len(list))
		for i, v := range list {
			if v != nil {
				rotate[i] = *v
			}
		}
		return rotate, nil
	}

	var byKey map[string]int
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return nil, err
	}
	rotate := make(map[int]int, len(byKey))
	for k, v := range byKey {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, err
		}
		rotate[idx] = v
	}
	return rotate, nil
}

// RotateParams selects the pages to rotate and the angle to add to their
// current rotation.
type RotateParams struct {
	Angle int
	// Pages lists 0-based page indices; nil selects every page.
	Pages []int
}

// ParseRotateParams reads the angle and pages fields. angle is required and
// must be a multiple of 90; pages is a JSON array of 0-based indices.
func ParseRotateParams(values url.Values) (RotateParams, error) {
	var params RotateParams

	raw := strings.TrimSpace(values.Get(FieldAngle))
	if raw == "" {
		return params, pdfops.Errorf("ParseRotateParams", pdfops.ErrValidation, "angle is required")
	}
	angle, err := strconv.Atoi(raw)
	if err != nil {
		return params, pdfops.Errorf("ParseRotateParams", pdfops.ErrValidation, "angle %q is not an integer", raw)
	}
	if angle%90 != 0 {
		return params, pdfops.Errorf("ParseRotateParams", pdfops.ErrValidation, "angle %d is not a multiple of 90", angle)
	}
	params.Angle = angle

	if raw := strings.TrimSpace(values.Get(FieldPages)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params.Pages); err != nil {
			return params, pdfops.Errorf("ParseRotateParams", pdfops.ErrValidation, "malformed pages: %v", err)
		}
	}

	return params, nil
}

// ParseWatermarkParams reads the text, opacity and position fields.
// Defaults: text CONFIDENTIAL, opacity 0.3, position center.
func ParseWatermarkParams(values url.Values) (overlay.WatermarkOptions, error) {
	opts := overlay.WatermarkOptions{
		Text:     overlay.DefaultWatermarkText,
		Opacity:  overlay.DefaultWatermarkOpacity,
		Position: overlay.Center,
	}

	if text := values.Get(FieldText); text != "" {
		opts.Text = text
	}

	if raw := strings.TrimSpace(values.Get(FieldOpacity)); raw != "" {
		opacity, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(opacity) {
			return opts, pdfops.Errorf("ParseWatermarkParams", pdfops.ErrValidation, "opacity %q is not a number", raw)
		}
		if opacity < 0 || opacity > 1 {
			return opts, pdfops.Errorf("ParseWatermarkParams", pdfops.ErrValidation, "opacity %v outside [0, 1]", opacity)
		}
		opts.Opacity = opacity
	}

	position, err := overlay.ParsePosition(values.Get(FieldPosition))
	if err != nil {
		return opts, err
	}
	opts.Position = position

	return opts, nil
}

// ParsePageNumberParams reads the position, alignment and startPage fields.
// Defaults: position bottom, alignment center, startPage 1.
func ParsePageNumberParams(values url.Values) (overlay.PageNumberOptions, error) {
	opts := overlay.PageNumberOptions{StartPage: 1}

	edge, err := overlay.ParseEdge(values.Get(FieldPosition))
	if err != nil {
		return opts, err
	}
	opts.Position = edge

	align, err := overlay.ParseAlignment(values.Get(FieldAlignment))
	if err != nil {
		return opts, err
	}
	opts.Alignment = align

	if raw := strings.TrimSpace(values.Get(FieldStartPage)); raw != "" {
		start, err := strconv.Atoi(raw)
		if err != nil {
			return opts, pdfops.Errorf("ParsePageNumberParams", pdfops.ErrValidation, "startPage %q is not an integer", raw)
		}
		opts.StartPage = start
	}

	return opts, nil
}
