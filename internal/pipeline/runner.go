// internal/pipeline/runner.go
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"mentor-matcher/internal/common/config"
	"mentor-matcher/internal/common/database"
	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/metrics"
	"mentor-matcher/internal/common/observability"
	"mentor-matcher/pkg/rubric"

	ed "mentor-matcher/internal/stages/enrichment/enrich-directory"
	lp "mentor-matcher/internal/stages/intake/load-participants"
	ml "mentor-matcher/internal/stages/matching/match-llm"
	pm "mentor-matcher/internal/stages/matching/parse-matches"
	vm "mentor-matcher/internal/stages/matching/validate-matches"
	ar "mentor-matcher/internal/stages/output/archive-run"
	pr "mentor-matcher/internal/stages/output/publish-results"
	wr "mentor-matcher/internal/stages/output/write-results"
)

// Dependencies are the external clients a run talks to. Archive, Uploader
// and Mailer are optional.
type Dependencies struct {
	Directory     ed.Directory
	Provider      ml.Provider
	Rubric        *rubric.Rubric
	Archive       *database.PostgresClient
	Uploader      pr.Uploader
	Mailer        pr.Mailer
	Metrics       *metrics.Metrics
	Observability *observability.Observability
}

// Summary describes a finished (or failed) run.
type Summary struct {
	RunID         string        `json:"runId"`
	OutputPath    string        `json:"outputPath"`
	RubricVersion string        `json:"rubricVersion"`
	Participants  int           `json:"participants"`
	Mentors       int           `json:"mentors"`
	Mentees       int           `json:"mentees"`
	Unresolved    int           `json:"unresolved"`
	Matched       int           `json:"matched"`
	Unmatched     int           `json:"unmatched"`
	Violations    int           `json:"violations"`
	ObjectKey     string        `json:"objectKey,omitempty"`
	Duration      time.Duration `json:"duration"`
}

type Runner struct {
	cfg    *config.Config
	deps   Dependencies
	logger logger.Logger

	loader    *lp.Handler
	enricher  *ed.Handler
	matcher   *ml.Handler
	parser    *pm.Handler
	validator *vm.Handler
	writer    *wr.Handler
	archiver  *ar.Handler
	publisher *pr.Handler

	now   func() time.Time
	newID func() string
}

func NewRunner(cfg *config.Config, deps Dependencies, log logger.Logger) *Runner {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Rubric == nil {
		deps.Rubric = rubric.Default()
	}

	r := &Runner{
		cfg:       cfg,
		deps:      deps,
		logger:    log,
		loader:    lp.NewHandler(lp.LoadConfig(cfg), log),
		enricher:  ed.NewHandler(ed.LoadConfig(cfg), deps.Directory, deps.Metrics, log),
		matcher:   ml.NewHandler(ml.LoadConfig(cfg), deps.Provider, log),
		parser:    pm.NewHandler(log),
		validator: vm.NewHandler(vm.LoadConfig(cfg), deps.Metrics, log),
		writer:    wr.NewHandler(wr.LoadConfig(cfg), log),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if deps.Archive != nil {
		r.archiver = ar.NewHandler(deps.Archive, log)
	}
	if deps.Uploader != nil || deps.Mailer != nil {
		r.publisher = pr.NewHandler(pr.LoadConfig(cfg), deps.Uploader, deps.Mailer, log)
	}
	return r
}

// Run executes one matching run: pre-flight, load, enrich, match, parse,
// validate, write, then the optional archive and publish steps.
func (r *Runner) Run(ctx context.Context) (summary *Summary, err error) {
	started := r.now()
	summary = &Summary{
		RunID:         r.newID(),
		OutputPath:    r.cfg.Output.Path,
		RubricVersion: r.deps.Rubric.Version,
	}
	log := r.logger.WithFields(map[string]interface{}{"runId": summary.RunID})

	defer func() {
		summary.Duration = r.now().Sub(started)
		r.finish(log, summary, err)
	}()

	log.Info("Run started", map[string]interface{}{
		"input":         r.cfg.Input.Path,
		"output":        r.cfg.Output.Path,
		"provider":      r.cfg.Completion.Provider,
		"rubricVersion": r.deps.Rubric.Version,
	})

	if err = Preflight(r.cfg, r.now()); err != nil {
		return summary, err
	}

	var loaded *lp.Output
	if err = r.stage(ctx, lp.TaskType, func() (e error) {
		loaded, e = r.loader.Execute(ctx, &lp.Input{Path: r.cfg.Input.Path})
		return e
	}); err != nil {
		return summary, err
	}
	summary.Participants = len(loaded.Participants)
	summary.Mentors = loaded.Mentors
	summary.Mentees = loaded.Mentees
	r.deps.Metrics.ParticipantsLoaded.Set(float64(len(loaded.Participants)))
	log.Info("Data retrieved", map[string]interface{}{"participants": summary.Participants})

	var enriched *ed.Output
	if err = r.stage(ctx, ed.TaskType, func() (e error) {
		enriched, e = r.enricher.Execute(ctx, &ed.Input{Participants: loaded.Participants})
		return e
	}); err != nil {
		return summary, err
	}
	summary.Unresolved = enriched.UnresolvedRecords
	if summary.Unresolved > 0 {
		log.Warn("Some participants have unresolved directory fields", map[string]interface{}{
			"records": summary.Unresolved,
			"fields":  enriched.UnresolvedFields,
		})
	}

	var completion *ml.Output
	if err = r.stage(ctx, ml.TaskType, func() (e error) {
		completion, e = r.matcher.Execute(ctx, &ml.Input{Participants: enriched.Participants, Rubric: r.deps.Rubric})
		return e
	}); err != nil {
		return summary, err
	}

	var parsed *pm.Output
	if err = r.stage(ctx, pm.TaskType, func() (e error) {
		parsed, e = r.parser.Execute(ctx, &pm.Input{Raw: completion.Raw})
		return e
	}); err != nil {
		r.saveRaw(log, completion.Raw)
		return summary, err
	}
	matches := parsed.Matches

	if r.cfg.Validation.Enabled {
		var validated *vm.Output
		if err = r.stage(ctx, vm.TaskType, func() (e error) {
			validated, e = r.validator.Execute(ctx, &vm.Input{Matches: matches, Participants: enriched.Participants})
			return e
		}); err != nil {
			return summary, err
		}
		matches = validated.Matches
		for _, n := range validated.Violations {
			summary.Violations += n
		}
	}

	if err = r.stage(ctx, wr.TaskType, func() error {
		_, e := r.writer.Execute(ctx, &wr.Input{Matches: matches, Path: r.cfg.Output.Path})
		return e
	}); err != nil {
		return summary, err
	}
	summary.Matched, summary.Unmatched = matches.Counts()
	r.deps.Metrics.Matches.WithLabelValues("matched").Add(float64(summary.Matched))
	r.deps.Metrics.Matches.WithLabelValues("unmatched").Add(float64(summary.Unmatched))

	if r.archiver != nil {
		archiveErr := r.stage(ctx, ar.TaskType, func() error {
			if e := r.archiver.EnsureSchema(ctx); e != nil {
				return e
			}
			_, e := r.archiver.Execute(ctx, &ar.Input{
				RunID:          summary.RunID,
				StartedAt:      started,
				FinishedAt:     r.now(),
				InputPath:      r.cfg.Input.Path,
				OutputPath:     r.cfg.Output.Path,
				Provider:       completion.Provider,
				Model:          completion.Model,
				RubricVersion:  r.deps.Rubric.Version,
				RubricChecksum: r.deps.Rubric.Checksum(),
				Participants:   summary.Participants,
				Unresolved:     summary.Unresolved,
				Matches:        matches,
			})
			return e
		})
		if archiveErr != nil {
			log.Warn("Run archive failed; output file is unaffected", map[string]interface{}{"error": archiveErr.Error()})
		}
	}

	if r.publisher != nil {
		var published *pr.Output
		publishErr := r.stage(ctx, pr.TaskType, func() (e error) {
			published, e = r.publisher.Execute(ctx, &pr.Input{
				RunID:         summary.RunID,
				Path:          r.cfg.Output.Path,
				RubricVersion: r.deps.Rubric.Version,
				Participants:  summary.Participants,
				Unresolved:    summary.Unresolved,
				Matched:       summary.Matched,
				Unmatched:     summary.Unmatched,
				Violations:    summary.Violations,
			})
			return e
		})
		if published != nil {
			summary.ObjectKey = published.ObjectKey
		}
		if publishErr != nil {
			log.Warn("Publishing failed; output file is unaffected", map[string]interface{}{"error": publishErr.Error()})
		}
	}

	return summary, nil
}

func (r *Runner) stage(ctx context.Context, name string, fn func() error) error {
	done := r.deps.Observability.TrackStage(ctx, name)
	err := fn()
	done(err)
	return err
}

// saveRaw keeps the unparseable completion for inspection.
func (r *Runner) saveRaw(log logger.Logger, raw string) {
	path := r.cfg.Output.RawResponsePath
	if path == "" {
		return
	}
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		log.Warn("Could not save raw completion", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}
	log.Info("Raw completion saved", map[string]interface{}{"path": path})
}

func (r *Runner) finish(log logger.Logger, summary *Summary, err error) {
	code := "OK"
	if err != nil {
		code = string(apperrors.CodeOf(err))
	}
	r.deps.Metrics.RunResult.WithLabelValues(code).Inc()

	if err == nil {
		log.Info("Run finished", map[string]interface{}{
			"participants": summary.Participants,
			"unresolved":   summary.Unresolved,
			"matched":      summary.Matched,
			"unmatched":    summary.Unmatched,
			"violations":   summary.Violations,
			"output":       summary.OutputPath,
			"duration":     summary.Duration.String(),
		})
	}

	if pushErr := r.deps.Metrics.Push(r.cfg.Metrics.PushgatewayURL, r.cfg.Metrics.Job); pushErr != nil {
		log.Warn("Metrics push failed", map[string]interface{}{"error": pushErr.Error()})
	}
}
