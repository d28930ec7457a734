// Package geometry computes the crop/scale plan for vertical framing and
// ranks the encode paths the render stage may use.
package geometry

import (
	"fmt"

	"github.com/mahmedraza1/Clipify/internal/types"
)

const (
	// TargetWidth and TargetHeight fix the 9:16 output frame.
	TargetWidth  = 1080
	TargetHeight = 1920
)

// PlanCrop computes the crop rectangle for a 9:16 target.
//
// Sources wider than 9:16 are cropped horizontally around the center.
// Sources at or narrower than 9:16 are cropped vertically with the window
// biased toward the upper third, because faces and primary subjects sit
// above dead-center in most footage. The one-third constant is a tuned
// value; do not re-derive it.
func PlanCrop(sourceWidth, sourceHeight int) (types.GeometryPlan, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return types.GeometryPlan{}, fmt.Errorf("invalid source dimensions %dx%d", sourceWidth, sourceHeight)
	}

	plan := types.GeometryPlan{
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		TargetWidth:  TargetWidth,
		TargetHeight: TargetHeight,
	}

	// aspect > 9/16 without float math: w*16 > h*9
	if sourceWidth*16 > sourceHeight*9 {
		cropW := sourceHeight * 9 / 16
		plan.Crop = types.CropRect{
			X: (sourceWidth - cropW) / 2,
			Y: 0,
			W: cropW,
			H: sourceHeight,
		}
	} else {
		cropH := sourceWidth * 16 / 9
		plan.Crop = types.CropRect{
			X: 0,
			Y: (sourceHeight - cropH) / 3,
			W: sourceWidth,
			H: cropH,
		}
	}
	return plan, nil
}

// FilterSpec renders the plan as an ffmpeg video filter.
func FilterSpec(p types.GeometryPlan) string {
	return fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d",
		p.Crop.W, p.Crop.H, p.Crop.X, p.Crop.Y, p.TargetWidth, p.TargetHeight)
}
