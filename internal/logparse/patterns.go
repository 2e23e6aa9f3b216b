package logparse

import "regexp"

var (
	// cen_accuracy: [(1, 0.31), (2, 0.52), ...] as printed in the run history
	cenAccuracyBlockPattern = regexp.MustCompile(`(?s)cen_accuracy['"]?\s*:\s*\[(.*?)\]`)
	accuracyPointPattern    = regexp.MustCompile(`\(\s*(\d+)\s*,\s*([0-9]*\.?[0-9]+)\s*\)`)

	// "round 3: 1.2345" lines of the loss history
	roundLossPattern           = regexp.MustCompile(`round\s+(\d+)\s*:\s*([0-9]*\.?[0-9]+)`)
	roundLossPatternIgnoreCase = regexp.MustCompile(`(?i)round\s+(\d+)\s*:\s*([0-9]*\.?[0-9]+)`)

	// fallbacks for logs that do not print the accuracy history
	cenAccuracySinglePattern = regexp.MustCompile(`(?i)cen_accuracy['"]?\s*[:=]\s*([0-9]*\.?[0-9]+)`)
	evaluateLinePattern      = regexp.MustCompile(`(?i)evaluate.*?loss.*?([\d\.]+).*?accuracy.*?([\d\.]+)`)

	// printed by the client task when it loads its partition
	clientClassesPattern = regexp.MustCompile(`Client\s+(\d+)\s+has\s+classes:\s*(\[.*?\])\s*\(counts=(\{.*?\})\)`)
)
