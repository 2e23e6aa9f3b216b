package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/events"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/logparse"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/results"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

const debugSnippetLength = 800

// Sweeper runs every combination of one sweep through the FL CLI, one at a time,
// and stores what it could scrape from the output.
type Sweeper struct {
	id        string
	name      string
	runner    runner.IRunner
	eventBus  *events.EventBus
	logger    hclog.Logger
	flwr      config.FlwrConfig
	sweep     config.SweepConfig
	outputDir string
	parser    logparse.Parser
	now       func() time.Time
}

// Report is what a finished (or canceled) sweep collected.
type Report struct {
	SweepId   string
	Name      string
	Summaries []model.RunSummary
	Rounds    []model.RoundResult
	Classes   []model.ClientClasses
	Files     FileNames
	Canceled  bool
}

func (r *Report) Count(status string) int {
	count := 0
	for _, summary := range r.Summaries {
		if summary.Status == status {
			count++
		}
	}
	return count
}

func NewSweeper(runner runner.IRunner, eventBus *events.EventBus, logger hclog.Logger, flwr config.FlwrConfig,
	name string, sweep config.SweepConfig, outputDir string) (*Sweeper, error) {
	if err := sweep.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep %s: %w", name, err)
	}
	if outputDir == "" {
		outputDir = "."
	}

	return &Sweeper{
		id:        uuid.New().String(),
		name:      name,
		runner:    runner,
		eventBus:  eventBus,
		logger:    logger.Named("sweep"),
		flwr:      flwr,
		sweep:     sweep,
		outputDir: outputDir,
		parser:    logparse.Parser{Extended: sweep.ExtendedParsing},
		now:       time.Now,
	}, nil
}

func (s *Sweeper) Id() string {
	return s.id
}

func (s *Sweeper) Name() string {
	return s.name
}

// Run executes the grid sequentially. Failed and timed out runs are recorded and the
// sweep goes on; canceling ctx stops after the current run, which is recorded as
// failed. Result files are written in both cases.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	if err := common.EnsureDir(s.outputDir); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	startTimestamp := common.FileTimestamp(s.now())
	files, err := ResultFileNames(s.sweep.SummaryFile, s.sweep.RoundsFile, s.classesPattern(), startTimestamp)
	if err != nil {
		return nil, err
	}
	files = FileNames{
		Summary: s.outputPath(files.Summary),
		Rounds:  s.outputPath(files.Rounds),
		Classes: s.outputPath(files.Classes),
	}
	if !s.sweep.ParseClasses {
		files.Classes = ""
	}

	report := &Report{
		SweepId: s.id,
		Name:    s.name,
		Files:   files,
	}

	combinations := Grid(s.sweep)
	s.logger.Info(fmt.Sprintf("Starting sweep %s (%s) with %d runs", s.name, s.id, len(combinations)))

	for i, combination := range combinations {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}

		logName, err := LogFileName(s.sweep.LogFile, combination, startTimestamp)
		if err != nil {
			return nil, err
		}

		summary, rounds, classes, canceled := s.runCombination(ctx, combination, logName)
		report.Summaries = append(report.Summaries, summary)
		report.Rounds = append(report.Rounds, rounds...)
		report.Classes = append(report.Classes, classes...)

		s.publish(common.RUN_FINISHED_EVENT_TYPE, events.RunFinishedEvent{
			SweepId: s.id,
			Index:   i,
			Total:   len(combinations),
			Summary: summary,
		})

		if canceled {
			report.Canceled = true
			break
		}
	}

	if err := s.writeResults(report); err != nil {
		s.publishFinished(report, err)
		return report, err
	}

	s.publishFinished(report, nil)
	return report, nil
}

func (s *Sweeper) runCombination(ctx context.Context, combination model.Combination, logName string) (model.RunSummary, []model.RoundResult, []model.ClientClasses, bool) {
	s.logger.Info(fmt.Sprintf("Running %s ...", combination))

	summary := model.RunSummary{
		Combination: combination,
		NumRounds:   s.sweep.NumServerRounds,
	}

	execution, err := s.runner.Run(ctx, BuildInvocation(s.flwr, s.sweep, combination, logName))
	if err != nil {
		summary.Timestamp = s.now()
		summary.Status = common.STATUS_FAILED
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			s.logger.Warn(fmt.Sprintf("Canceled during %s", combination))
			summary.Error = errorText(common.ERROR_CANCELED)
			return summary, nil, nil, true
		}
		s.logger.Error(fmt.Sprintf("Could not run flwr for %s: %s", combination, err.Error()))
		summary.Error = errorText(common.Truncate(err.Error(), s.sweep.ErrorLimit))
		return summary, nil, nil, false
	}

	if execution.TimedOut {
		s.logger.Info(fmt.Sprintf("Run timed out for %s.", combination))
		summary.Timestamp = s.now()
		summary.Status = common.STATUS_TIMEOUT
		summary.Error = errorText(common.ERROR_TIMEOUT)
		return summary, nil, nil, false
	}

	output := execution.CombinedOutput()
	summary.LogFile = s.outputPath(logName)
	if err := os.WriteFile(summary.LogFile, []byte(output), 0644); err != nil {
		s.logger.Warn(fmt.Sprintf("Could not save log %s: %s", summary.LogFile, err.Error()))
		summary.LogFile = ""
	}

	var classes []model.ClientClasses
	if s.sweep.ParseClasses {
		for _, line := range logparse.ParseClientClasses(output) {
			classes = append(classes, model.ClientClasses{
				Combination: combination,
				ClientId:    line.ClientId,
				Classes:     line.Classes,
				Counts:      line.Counts,
			})
		}
		if s.sweep.ExtendedParsing && len(classes) == 0 {
			s.logger.Warn("No client class distribution lines found in logs. Check client print block.")
		}
	}

	if s.sweep.ExtendedParsing {
		s.logger.Debug(fmt.Sprintf("Process returncode: %d", execution.ExitCode))
	}

	if execution.ExitCode != 0 {
		errorSummary := common.ErrorSummary(execution.Stdout, execution.Stderr, s.sweep.ErrorLimit, s.sweep.TrimError)
		s.logger.Info(fmt.Sprintf("flwr failed for %s.", combination))
		if s.sweep.ExtendedParsing {
			s.logger.Debug(fmt.Sprintf("Stderr/Stdout snippet:\n%s", common.DebugSnippet(errorSummary, debugSnippetLength)))
		}
		summary.Timestamp = s.now()
		summary.Status = common.STATUS_FAILED
		summary.Error = errorText(errorSummary)
		return summary, nil, classes, false
	}

	metrics := s.parser.Parse(output)
	if s.sweep.ExtendedParsing {
		s.appendResultsJson(&metrics)
	}

	var rounds []model.RoundResult
	for _, rm := range logparse.MergeRounds(metrics, int(s.sweep.NumServerRounds)) {
		rounds = append(rounds, model.RoundResult{
			Combination: combination,
			Round:       rm.Round,
			Accuracy:    rm.Accuracy,
			Loss:        rm.Loss,
		})
	}

	summary.FinalAccuracy, summary.FinalLoss = metrics.Final()
	if s.sweep.ExtendedParsing && summary.FinalAccuracy == nil {
		s.logger.Warn(fmt.Sprintf("Could not parse final accuracy from logs. Here is a stdout/stderr snippet:\n%s",
			common.DebugSnippet(output, debugSnippetLength)))
	}

	s.logger.Info(fmt.Sprintf("Finished %s: acc=%s, loss=%s", combination,
		displayFloat(summary.FinalAccuracy), displayFloat(summary.FinalLoss)))

	summary.Timestamp = s.now()
	summary.Status = common.STATUS_OK
	return summary, rounds, classes, false
}

func (s *Sweeper) appendResultsJson(metrics *logparse.Metrics) {
	path := filepath.Join(s.flwr.AppDir, s.flwr.ResultsJson)
	point, err := logparse.ReadResultsJson(path)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to read %s: %s", path, err.Error()))
		return
	}
	if point != nil {
		metrics.Accuracies = append(metrics.Accuracies, *point)
	}
}

func (s *Sweeper) writeResults(report *Report) error {
	schema := results.Schema{
		Dimensions:       Dimensions(s.sweep),
		IncludeNumRounds: s.sweep.IncludeNumRounds,
	}

	if err := results.WriteSummaries(report.Files.Summary, schema, report.Summaries); err != nil {
		return fmt.Errorf("cannot write summary: %w", err)
	}
	s.logger.Info(fmt.Sprintf("Summary saved to %s", report.Files.Summary))

	if err := results.WriteRounds(report.Files.Rounds, schema, report.Rounds); err != nil {
		return fmt.Errorf("cannot write round metrics: %w", err)
	}
	s.logger.Info(fmt.Sprintf("Per-round metrics saved to %s", report.Files.Rounds))

	if report.Files.Classes != "" {
		if err := results.WriteClasses(report.Files.Classes, schema, report.Classes); err != nil {
			return fmt.Errorf("cannot write class distributions: %w", err)
		}
		s.logger.Info(fmt.Sprintf("Class distributions saved to %s", report.Files.Classes))
	}

	return nil
}

func (s *Sweeper) publishFinished(report *Report, err error) {
	finished := events.SweepFinishedEvent{
		SweepId:     s.id,
		SweepName:   s.name,
		Runs:        len(report.Summaries),
		Failed:      report.Count(common.STATUS_FAILED),
		TimedOut:    report.Count(common.STATUS_TIMEOUT),
		Canceled:    report.Canceled,
		SummaryFile: report.Files.Summary,
		RoundsFile:  report.Files.Rounds,
		ClassesFile: report.Files.Classes,
	}
	if err != nil {
		finished.ErrorMessage = err.Error()
	}
	s.publish(common.SWEEP_FINISHED_EVENT_TYPE, finished)
}

func (s *Sweeper) publish(eventType string, data interface{}) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(events.Event{
		Type:      eventType,
		Timestamp: s.now(),
		Data:      data,
	})
}

func (s *Sweeper) classesPattern() string {
	if !s.sweep.ParseClasses {
		return ""
	}
	return s.sweep.ClassesFile
}

func (s *Sweeper) outputPath(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(s.outputDir, name)
}

func errorText(text string) *string {
	return &text
}

func displayFloat(value *float64) string {
	if value == nil {
		return "None"
	}
	return common.FormatFloat(*value)
}
