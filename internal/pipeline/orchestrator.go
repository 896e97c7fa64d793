// Package pipeline runs the fixed sequence of load and classification stages.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/metrics"
)

// Stage is one unit of work in the run. Critical stages stop the run on
// failure; best-effort stages are logged and skipped over. Retry wraps Run
// with the orchestrator's Runner.
type Stage struct {
	Name     string
	Critical bool
	Retry    bool
	Run      func(ctx context.Context) (int64, error)
}

// Status is the outcome of one stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageResult records one stage outcome.
type StageResult struct {
	Name     string        `json:"name"`
	Critical bool          `json:"critical"`
	Status   Status        `json:"status"`
	Rows     int64         `json:"rows"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageResult `json:"stages"`
	Error      string        `json:"error,omitempty"`

	// Err is the failure that decided the run, nil on success.
	Err error `json:"-"`
}

// Succeeded reports whether no critical stage or precondition failed.
func (r Report) Succeeded() bool { return r.Err == nil && r.Error == "" }

// ExitCode is the process exit status for the run: 0 on success, 1 otherwise.
func (r Report) ExitCode() int {
	if r.Succeeded() {
		return 0
	}
	return 1
}

// Stage returns the result for the named stage.
func (r Report) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Locker guards against concurrent runs. Acquire returns a release function.
type Locker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// ReportSink keeps the last run report for the status command.
type ReportSink interface {
	SaveLastReport(ctx context.Context, data []byte) error
}

// Orchestrator executes stages strictly in order.
type Orchestrator struct {
	InputDir string
	Stages   []Stage
	Runner   Runner
	Lock     Locker
	Sink     ReportSink
	Log      *slog.Logger
	Now      func() time.Time
}

// Run executes the stages. It never panics; the outcome is in the report.
func (o *Orchestrator) Run(ctx context.Context) (report Report) {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	log := o.Log
	if log == nil {
		log = slog.Default()
	}

	report = Report{RunID: uuid.NewString(), StartedAt: now()}
	log = log.With("run_id", report.RunID)
	runner := o.Runner
	if runner.Log == nil {
		runner.Log = log
	}

	defer func() {
		report.FinishedAt = now()
		o.finish(ctx, log, &report)
	}()

	if err := CheckInputDir(o.InputDir); err != nil {
		report.Err = err
		report.Stages = skipAll(o.Stages)
		log.Error("Pre-flight check failed", "input_dir", o.InputDir, "error", errs.Loggable(err))
		return report
	}

	if o.Lock != nil {
		release, err := o.Lock.Acquire(ctx)
		if err != nil {
			report.Err = errs.Stage("preflight", fmt.Errorf("acquire run lock: %w", err))
			report.Stages = skipAll(o.Stages)
			log.Error("Another run holds the lock", "error", errs.Loggable(err))
			return report
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release run lock", "error", errs.Loggable(err))
			}
		}()
	}

	log.Info("Run started", "input_dir", o.InputDir, "stages", len(o.Stages))

	halted := false
	for _, st := range o.Stages {
		if halted {
			report.Stages = append(report.Stages, skipped(st))
			metrics.StageRuns.WithLabelValues(st.Name, metrics.OutcomeSkipped).Inc()
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Err = errs.Stage(st.Name, fmt.Errorf("run cancelled: %w", err))
			report.Stages = append(report.Stages, skipped(st))
			halted = true
			continue
		}

		res, err := o.runStage(ctx, log, runner, st)
		report.Stages = append(report.Stages, res)
		if err == nil {
			continue
		}

		if st.Critical {
			report.Err = errs.Wrapf(err, "stage %s", st.Name)
			halted = true
			log.Error("Critical stage failed, stopping run", "stage", st.Name, "error", errs.Loggable(err))
			continue
		}
		log.Error("Best-effort stage failed, continuing", "stage", st.Name, "error", errs.Loggable(err))
	}

	return report
}

func (o *Orchestrator) runStage(ctx context.Context, log *slog.Logger, runner Runner, st Stage) (StageResult, error) {
	res := StageResult{Name: st.Name, Critical: st.Critical}
	log.Info("Stage started", "stage", st.Name, "critical", st.Critical, "retry", st.Retry)

	call := func(ctx context.Context) (n int64, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = errs.Stage(st.Name, fmt.Errorf("panic: %v", p))
			}
		}()
		return st.Run(ctx)
	}

	start := time.Now()
	var rows int64
	var err error
	if st.Retry {
		rows, err = Retry(ctx, runner, st.Name, call)
	} else {
		rows, err = call(ctx)
	}
	res.Duration = time.Since(start)
	metrics.StageDuration.WithLabelValues(st.Name).Observe(res.Duration.Seconds())

	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		metrics.StageRuns.WithLabelValues(st.Name, metrics.OutcomeFailed).Inc()
		return res, err
	}

	res.Status = StatusSucceeded
	res.Rows = rows
	metrics.StageRuns.WithLabelValues(st.Name, metrics.OutcomeSucceeded).Inc()
	metrics.RowsAffected.WithLabelValues(st.Name).Add(float64(rows))
	log.Info("Stage finished", "stage", st.Name, "rows", rows, "duration", res.Duration)
	return res, nil
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, report *Report) {
	if report.Err != nil {
		report.Error = report.Err.Error()
	}

	elapsed := report.FinishedAt.Sub(report.StartedAt)
	metrics.RunDuration.Set(elapsed.Seconds())
	if report.Succeeded() {
		metrics.RunLastSuccess.Set(float64(report.FinishedAt.Unix()))
		log.Info("Run finished", "duration", elapsed)
	} else {
		log.Error("Run failed", "duration", elapsed, "error", errs.Loggable(report.Err))
	}

	if o.Sink == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		log.Warn("Failed to encode run report", "error", err)
		return
	}
	if err := o.Sink.SaveLastReport(context.WithoutCancel(ctx), data); err != nil {
		log.Warn("Failed to publish run report", "error", errs.Loggable(err))
	}
}

// CheckInputDir fails with a validation error unless dir is an existing directory.
func CheckInputDir(dir string) error {
	const op = "preflight"
	if dir == "" {
		return errs.Validationf(op, "input directory not configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errs.Validation(op, fmt.Errorf("input directory: %w", err))
	}
	if !info.IsDir() {
		return errs.Validationf(op, "input path %s is not a directory", dir)
	}
	return nil
}

func skipped(st Stage) StageResult {
	return StageResult{Name: st.Name, Critical: st.Critical, Status: StatusSkipped}
}

func skipAll(stages []Stage) []StageResult {
	out := make([]StageResult, 0, len(stages))
	for _, st := range stages {
		out = append(out, skipped(st))
	}
	return out
}
