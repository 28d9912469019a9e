// Package service implements the request surface (spec §4.5): the
// operations a transport binding exposes to clients, translated into calls
// against the plan-file parser, the run registry, and the scheduler.
// Grounded on the teacher's internal/application/pipeline use-case layer
// (PrepareUseCase/ApplyUseCase) — a thin orchestration object taking its
// collaborators as constructor-injected ports and logging failures. The only
// event published is a run's final status, when its background run ends.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgerun/runnerd/internal/config"
	"github.com/forgerun/runnerd/internal/domain/plan"
	"github.com/forgerun/runnerd/internal/engine"
	"github.com/forgerun/runnerd/internal/logging"
	"github.com/forgerun/runnerd/internal/planfile"
	"github.com/forgerun/runnerd/internal/publisher"
	"github.com/forgerun/runnerd/internal/runregistry"
	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

// StepRecord is one step rendered for a client (spec §4.5's listPlan result
// shape).
type StepRecord struct {
	Name        string
	Description string
	Kind        string
	User        string
	Command     string
	Parent      string
	Env         map[string]string
}

// Service implements every operation in spec §4.5. It owns no state of its
// own beyond its collaborators — the registry and the config are the
// sources of truth.
type Service struct {
	cfg       *config.Config
	registry  *runregistry.Registry
	scheduler *engine.Scheduler
	logger    logging.Logger
	publish   *publisher.Publisher
}

// New constructs a Service. publish may be nil when the external publisher
// is disabled (spec §4.6 — absence of configuration disables it).
func New(cfg *config.Config, registry *runregistry.Registry, scheduler *engine.Scheduler, logger logging.Logger, publish *publisher.Publisher) *Service {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Service{cfg: cfg, registry: registry, scheduler: scheduler, logger: logger, publish: publish}
}

// ListPlanSets returns the names of directories under plan.rule_dir.
func (s *Service) ListPlanSets(ctx context.Context) ([]string, error) {
	if s.cfg == nil || s.cfg.PlanRuleDir == "" {
		return nil, streamyerrors.NewConfigError("plan.rule_dir", "Configuration is not available", nil)
	}

	entries, err := os.ReadDir(s.cfg.PlanRuleDir)
	if err != nil {
		s.logger.Error(ctx, "failed to read plan rule dir", "dir", s.cfg.PlanRuleDir, "error", err)
		return nil, streamyerrors.NewConfigError(s.cfg.PlanRuleDir, "Couldn't read "+s.cfg.PlanRuleDir, err)
	}

	var sets []string
	for _, e := range entries {
		if e.IsDir() {
			sets = append(sets, e.Name())
		}
	}
	return sets, nil
}

// ListPlans returns the names of *.conf files (extension stripped) within a
// plan set.
func (s *Service) ListPlans(ctx context.Context, set string) ([]string, error) {
	if s.cfg == nil || s.cfg.PlanRuleDir == "" {
		return nil, streamyerrors.NewConfigError("plan.rule_dir", "Configuration is not available", nil)
	}

	dir := filepath.Join(s.cfg.PlanRuleDir, set)
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Error(ctx, "failed to read plan set dir", "dir", dir, "error", err)
		return nil, streamyerrors.NewConfigError(dir, "Couldn't read "+dir, err)
	}

	var plans []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".conf" {
			plans = append(plans, strings.TrimSuffix(e.Name(), ext))
		}
	}
	return plans, nil
}

func (s *Service) planPath(set, planName string) (string, error) {
	if s.cfg == nil || s.cfg.PlanRuleDir == "" {
		return "", streamyerrors.NewConfigError("plan.rule_dir", "Configuration is not available", nil)
	}
	path := filepath.Join(s.cfg.PlanRuleDir, set, planName+".conf")
	if _, err := os.Stat(path); err != nil {
		return "", streamyerrors.NewParseError(path, 0, fmt.Errorf("Specified rule does not exist"))
	}
	return path, nil
}

// ListPlan parses a plan file and renders its steps for display.
func (s *Service) ListPlan(ctx context.Context, set, planName string) ([]StepRecord, error) {
	path, err := s.planPath(set, planName)
	if err != nil {
		return nil, err
	}

	p, err := planfile.Parse(path)
	if err != nil {
		s.logger.Error(ctx, "failed to parse plan", "set", set, "plan", planName, "error", err)
		return nil, err
	}

	records := make([]StepRecord, 0, len(p.Steps))
	for _, step := range p.Steps {
		kind := "Action"
		if step.Kind == plan.KindRecovery {
			kind = "Recovery"
		}
		records = append(records, StepRecord{
			Name:        step.Name,
			Description: step.Description,
			Kind:        kind,
			User:        step.User,
			Command:     step.RenderedCommand(),
			Parent:      step.Parent,
			Env:         step.Env,
		})
	}
	return records, nil
}

// ShowPlans returns every currently known RunKey.
func (s *Service) ShowPlans(ctx context.Context) ([]plan.RunKey, error) {
	if s.registry == nil {
		return nil, streamyerrors.NewRegistryError(0, "History not initialized", nil)
	}
	return s.registry.ListIDs(), nil
}

// ShowStatus returns the run log lines for a given run id.
func (s *Service) ShowStatus(ctx context.Context, id uint32) ([]string, error) {
	if s.registry == nil {
		return nil, streamyerrors.NewRegistryError(id, "History not initialized", nil)
	}
	return s.registry.Read(id)
}

// Execute parses the plan, allocates a run id, and starts the scheduler in
// the background. If parsing fails the run id is still allocated and the
// log records a single Error line describing the failure, per spec §4.5.
func (s *Service) Execute(ctx context.Context, set, planName string) (plan.RunKey, error) {
	key := s.registry.Allocate(set, planName)

	path, err := s.planPath(set, planName)
	if err == nil {
		var p *plan.Plan
		p, err = planfile.Parse(path)
		if err == nil {
			s.logger.Info(ctx, "starting run", "run_id", key.ID, "set", set, "plan", planName)
			go s.runInBackground(key, p)
			return key, nil
		}
	}

	s.logger.Error(ctx, "failed to parse plan for execute", "run_id", key.ID, "set", set, "plan", planName, "error", err)
	line := engine.FormatFailureLine(set, planName, err)
	s.registry.Append(key.ID, []string{line})
	return key, err
}

func (s *Service) runInBackground(key plan.RunKey, p *plan.Plan) {
	status := s.scheduler.Run(p, func(lines []string) {
		s.registry.Append(key.ID, lines)
	})
	if s.publish != nil {
		s.publish.Publish(context.Background(), fmt.Sprintf("%d", key.ID), string(status))
	}
}

// DumpHist archives and evicts a single run.
func (s *Service) DumpHist(ctx context.Context, id uint32) error {
	if s.cfg == nil || s.cfg.PlanRuleLog == "" {
		return streamyerrors.NewConfigError("plan.rule_log", "Configuration is not available", nil)
	}
	if err := s.registry.Archive(id, s.cfg.PlanRuleLog); err != nil {
		s.logger.Error(ctx, "failed to archive run", "run_id", id, "error", err)
		return err
	}
	return nil
}

// DumpHistAll archives and evicts every run; partial success is allowed.
func (s *Service) DumpHistAll(ctx context.Context) (archived []plan.RunKey, failures map[plan.RunKey]error, err error) {
	if s.cfg == nil || s.cfg.PlanRuleLog == "" {
		return nil, nil, streamyerrors.NewConfigError("plan.rule_log", "Configuration is not available", nil)
	}
	archived, failures = s.registry.ArchiveAll(s.cfg.PlanRuleLog)
	for key, failure := range failures {
		s.logger.Error(ctx, "failed to archive run", "run_id", key.ID, "error", failure)
	}
	return archived, failures, nil
}
