package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

var countEntryPattern = regexp.MustCompile(`(\d+)\s*:\s*(\d+)`)

// ParseCounts reads a label count mapping such as "{0: 1200, 3: 980}".
func ParseCounts(counts string) (map[int]int64, error) {
	result := map[int]int64{}
	for _, match := range countEntryPattern.FindAllStringSubmatch(counts, -1) {
		label, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("invalid label %q: %w", match[1], err)
		}
		samples, err := strconv.ParseInt(match[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", match[2], err)
		}
		result[label] += samples
	}
	return result, nil
}

type ClientSkew struct {
	ClientId   int
	Samples    int64
	Classes    int
	Divergence float64
}

// ClassSkew scores every client by the KL divergence of its label distribution from
// the pooled distribution of all given clients.
func ClassSkew(clientCounts map[int]map[int]int64) []ClientSkew {
	numClasses := 0
	for _, counts := range clientCounts {
		for label := range counts {
			numClasses = max(numClasses, label+1)
		}
	}

	pooled := make([]int64, numClasses)
	for _, counts := range clientCounts {
		for label, samples := range counts {
			pooled[label] += samples
		}
	}
	overall := distribution(pooled)

	ids := make([]int, 0, len(clientCounts))
	for id := range clientCounts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	skews := make([]ClientSkew, 0, len(ids))
	for _, id := range ids {
		samples := make([]int64, numClasses)
		total := int64(0)
		for label, count := range clientCounts[id] {
			samples[label] += count
			total += count
		}
		skews = append(skews, ClientSkew{
			ClientId:   id,
			Samples:    total,
			Classes:    len(clientCounts[id]),
			Divergence: klDivergence(distribution(samples), overall),
		})
	}
	return skews
}

func distribution(samplesPerClass []int64) []float64 {
	total := int64(0)
	for _, samples := range samplesPerClass {
		total += samples
	}

	result := make([]float64, len(samplesPerClass))
	for i, samples := range samplesPerClass {
		percentage := 0.0
		if total > 0 {
			percentage = float64(samples) / float64(total)
		}
		if percentage == 0.0 {
			percentage = 0.0001
		}
		result[i] = percentage
	}
	return result
}

func klDivergence(p, q []float64) float64 {
	if len(p) != len(q) {
		panic("Distributions must have the same number of parameters")
	}

	klDiv := 0.0
	for i := 0; i < len(p); i++ {
		if q[i] == 0 {
			continue
		}
		klDiv += p[i] * math.Log(p[i]/q[i])
	}
	return klDiv
}
