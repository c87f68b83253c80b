package services

import (
	"errors"
	"fmt"
	"sort"
)

// Aggregate is the reduction of a set of VariationResults.
type Aggregate struct {
	// Images holds exactly n entries when at least one attempt succeeded, nil otherwise.
	Images    []string
	Succeeded int
	// Failures has one "<name>: <reason>" line per failed attempt, in index order.
	Failures []string
}

// AggregateVariations keeps successful images in index order and pads them to n by repeating the first one.
func AggregateVariations(results []VariationResult, n int) Aggregate {
	var agg Aggregate
	ordered := make([]VariationResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	for _, r := range ordered {
		if r.Succeeded() {
			agg.Images = append(agg.Images, r.Image)
			continue
		}
		agg.Failures = append(agg.Failures, fmt.Sprintf("%s: %s", r.Name, failureReason(r.Err)))
	}
	agg.Succeeded = len(agg.Images)
	if agg.Succeeded == 0 {
		agg.Images = nil
		return agg
	}
	for len(agg.Images) < n {
		agg.Images = append(agg.Images, agg.Images[0])
	}
	agg.Images = agg.Images[:n]
	return agg
}

func failureReason(err error) string {
	if err == nil {
		return "No image data found in response"
	}
	var upstream *UpstreamError
	var shape *DataShapeError
	if errors.As(err, &upstream) || errors.As(err, &shape) {
		return err.Error()
	}
	return fmt.Sprintf("Exception: %s", err.Error())
}
