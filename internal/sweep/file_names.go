package sweep

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
)

// nameData holds the fields available to file name patterns, already formatted.
type nameData struct {
	NumClients  string
	FractionFit string
	Alpha       string
	Seed        string
	Timestamp   string
}

type FileNames struct {
	Summary string
	Rounds  string
	Classes string
}

// ResultFileNames renders the result file patterns of a sweep started at timestamp.
func ResultFileNames(summary, rounds, classes string, timestamp string) (FileNames, error) {
	data := nameData{Timestamp: timestamp}
	names := FileNames{}
	var err error
	if names.Summary, err = renderName(summary, data); err != nil {
		return FileNames{}, err
	}
	if names.Rounds, err = renderName(rounds, data); err != nil {
		return FileNames{}, err
	}
	if classes != "" {
		if names.Classes, err = renderName(classes, data); err != nil {
			return FileNames{}, err
		}
	}
	return names, nil
}

func LogFileName(pattern string, combination model.Combination, timestamp string) (string, error) {
	return renderName(pattern, nameData{
		NumClients:  combination.Value(common.DIM_NUM_CLIENTS),
		FractionFit: combination.Value(common.DIM_FRACTION_FIT),
		Alpha:       combination.Value(common.DIM_ALPHA),
		Seed:        combination.Value(common.DIM_SEED),
		Timestamp:   timestamp,
	})
}

func renderName(pattern string, data nameData) (string, error) {
	tmpl, err := template.New("name").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid file name pattern %q: %w", pattern, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("cannot render file name pattern %q: %w", pattern, err)
	}
	return sb.String(), nil
}
