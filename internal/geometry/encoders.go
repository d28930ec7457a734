package geometry

import (
	"errors"
	"runtime"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// ErrNoEncoder means every capability probe failed, software included.
var ErrNoEncoder = errors.New("no viable encoder path")

// ProbeResult is one capability probe outcome.
type ProbeResult struct {
	Family types.CodecFamily
	OK     bool
}

// familyOrder fixes probe and fallback priority: NVIDIA, then Intel, then
// software.
var familyOrder = []types.CodecFamily{
	types.FamilyNVENC,
	types.FamilyQSV,
	types.FamilySoftware,
}

// FamilyOrder returns the fixed probe priority.
func FamilyOrder() []types.CodecFamily {
	out := make([]types.CodecFamily, len(familyOrder))
	copy(out, familyOrder)
	return out
}

// RankEncoders turns probe results into an ordered encode plan list. Only
// families whose probe passed are included, in fixed priority order. An
// empty result means ErrNoEncoder.
func RankEncoders(probes []ProbeResult) ([]types.EncodePlan, error) {
	return rankEncoders(probes, runtime.NumCPU())
}

func rankEncoders(probes []ProbeResult, logicalCores int) ([]types.EncodePlan, error) {
	passed := map[types.CodecFamily]bool{}
	for _, p := range probes {
		if p.OK {
			passed[p.Family] = true
		}
	}

	threads := ThreadCount(logicalCores)
	var plans []types.EncodePlan
	for _, fam := range familyOrder {
		if !passed[fam] {
			continue
		}
		plans = append(plans, planFor(fam, threads))
	}
	if len(plans) == 0 {
		return nil, ErrNoEncoder
	}
	return plans, nil
}

// ThreadCount caps encode threads at half the logical cores, minimum 1,
// leaving headroom for the rest of the pipeline.
func ThreadCount(logicalCores int) int {
	n := logicalCores / 2
	if n < 1 {
		n = 1
	}
	return n
}

func planFor(fam types.CodecFamily, threads int) types.EncodePlan {
	switch fam {
	case types.FamilyNVENC:
		return types.EncodePlan{
			Family:      fam,
			Encoder:     "h264_nvenc",
			ThreadCount: threads,
			ExtraArgs:   []string{"-preset", "p4", "-rc", "vbr", "-cq", "23"},
		}
	case types.FamilyQSV:
		return types.EncodePlan{
			Family:      fam,
			Encoder:     "h264_qsv",
			ThreadCount: threads,
			ExtraArgs:   []string{"-preset", "veryfast", "-global_quality", "23"},
		}
	default:
		return types.EncodePlan{
			Family:      types.FamilySoftware,
			Encoder:     "libx264",
			ThreadCount: threads,
			ExtraArgs:   []string{"-preset", "veryfast", "-crf", "18"},
		}
	}
}
