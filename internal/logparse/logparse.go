package logparse

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
)

// Point is a metric value attributed to a server round. Round is
// common.UNKNOWN_ROUND when the log did not say.
type Point struct {
	Round int
	Value float64
}

type Metrics struct {
	Accuracies []Point
	Losses     []Point
}

type ClassLine struct {
	ClientId int
	Classes  string
	Counts   string
}

type RoundMetrics struct {
	Round    int
	Accuracy *float64
	Loss     *float64
}

// Parser extracts metrics from the combined console output of one run. Extended
// parsing adds case-insensitive loss lines and the single-value accuracy fallbacks.
type Parser struct {
	Extended bool
}

func (p Parser) Parse(output string) Metrics {
	metrics := Metrics{
		Accuracies: ParseAccuracyBlock(output),
	}

	if p.Extended && len(metrics.Accuracies) == 0 {
		metrics.Accuracies = parseSingleAccuracies(output)
	}
	if p.Extended && len(metrics.Accuracies) == 0 {
		metrics.Accuracies = parseEvaluateLines(output)
	}

	metrics.Losses = ParseRoundLosses(output, p.Extended)

	return metrics
}

// ParseAccuracyBlock reads the (round, value) pairs of the first cen_accuracy list.
func ParseAccuracyBlock(output string) []Point {
	points := []Point{}
	match := cenAccuracyBlockPattern.FindStringSubmatch(output)
	if match == nil {
		return points
	}
	for _, pair := range accuracyPointPattern.FindAllStringSubmatch(match[1], -1) {
		if point, ok := toPoint(pair[1], pair[2]); ok {
			points = append(points, point)
		}
	}
	return points
}

func ParseRoundLosses(output string, ignoreCase bool) []Point {
	re := roundLossPattern
	if ignoreCase {
		re = roundLossPatternIgnoreCase
	}

	points := []Point{}
	for _, match := range re.FindAllStringSubmatch(output, -1) {
		if point, ok := toPoint(match[1], match[2]); ok {
			points = append(points, point)
		}
	}
	return points
}

func parseSingleAccuracies(output string) []Point {
	points := []Point{}
	for _, match := range cenAccuracySinglePattern.FindAllStringSubmatch(output, -1) {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		points = append(points, Point{Round: common.UNKNOWN_ROUND, Value: value})
	}
	return points
}

func parseEvaluateLines(output string) []Point {
	points := []Point{}
	for _, match := range evaluateLinePattern.FindAllStringSubmatch(output, -1) {
		if _, err := strconv.ParseFloat(match[1], 64); err != nil {
			continue
		}
		accuracy, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		points = append(points, Point{Round: common.UNKNOWN_ROUND, Value: accuracy})
	}
	return points
}

func ParseClientClasses(output string) []ClassLine {
	lines := []ClassLine{}
	for _, match := range clientClassesPattern.FindAllStringSubmatch(output, -1) {
		clientId, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		lines = append(lines, ClassLine{
			ClientId: clientId,
			Classes:  match[2],
			Counts:   match[3],
		})
	}
	return lines
}

// ReadResultsJson reads the accuracy of the last round from a results.json written
// by the server strategy ({"<round>": {"cen_accuracy": ...}, ...}). It returns nil
// without error when the file does not exist or holds no accuracy.
func ReadResultsJson(path string) (*Point, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data := map[string]map[string]interface{}{}
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	lastRound := 0
	first := true
	for key := range data {
		round, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid round key %q in %s", key, path)
		}
		if first || round > lastRound {
			lastRound = round
			first = false
		}
	}

	metrics := data[strconv.Itoa(lastRound)]
	raw := metrics["cen_accuracy"]
	if !truthy(raw) {
		raw = metrics["accuracy"]
	}
	if !truthy(raw) {
		return nil, nil
	}

	value, err := toFloat(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid accuracy of round %d in %s: %w", lastRound, path, err)
	}
	return &Point{Round: lastRound, Value: value}, nil
}

// truthy treats missing, null, zero and empty values as absent.
func truthy(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case float64:
		return v != 0
	case string:
		return v != ""
	case bool:
		return v
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	}
	return true
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("not a number: %v", raw)
}

// MergeRounds joins accuracies and losses by round, sorted ascending. Points of an
// unknown round are attributed to the final round; later points overwrite earlier
// ones of the same round.
func MergeRounds(metrics Metrics, numServerRounds int) []RoundMetrics {
	byRound := map[int]*RoundMetrics{}
	get := func(round int) *RoundMetrics {
		if round == common.UNKNOWN_ROUND {
			round = numServerRounds
		}
		rm, found := byRound[round]
		if !found {
			rm = &RoundMetrics{Round: round}
			byRound[round] = rm
		}
		return rm
	}

	for _, point := range metrics.Accuracies {
		value := point.Value
		get(point.Round).Accuracy = &value
	}
	for _, point := range metrics.Losses {
		value := point.Value
		get(point.Round).Loss = &value
	}

	rounds := make([]RoundMetrics, 0, len(byRound))
	for _, rm := range byRound {
		rounds = append(rounds, *rm)
	}
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].Round < rounds[j].Round
	})
	return rounds
}

// Final returns the last extracted accuracy and loss, nil when none were found.
func (m Metrics) Final() (*float64, *float64) {
	var accuracy, loss *float64
	if len(m.Accuracies) > 0 {
		value := m.Accuracies[len(m.Accuracies)-1].Value
		accuracy = &value
	}
	if len(m.Losses) > 0 {
		value := m.Losses[len(m.Losses)-1].Value
		loss = &value
	}
	return accuracy, loss
}

func toPoint(round string, value string) (Point, bool) {
	r, err := strconv.Atoi(round)
	if err != nil {
		return Point{}, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Point{}, false
	}
	return Point{Round: r, Value: v}, true
}
