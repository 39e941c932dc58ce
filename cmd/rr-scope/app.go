package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/config"
	"github.com/haukened/rr-scope/internal/scope/domain"
	"github.com/haukened/rr-scope/internal/scope/gateways/source"
	"github.com/haukened/rr-scope/internal/scope/repos/addrset"
	"github.com/haukened/rr-scope/internal/scope/repos/addrset/bloom"
	"github.com/haukened/rr-scope/internal/scope/repos/hostcache"
	"github.com/haukened/rr-scope/internal/scope/repos/patterns"
	"github.com/haukened/rr-scope/internal/scope/repos/surtprefix"
	"github.com/haukened/rr-scope/internal/scope/services/queue"
	"github.com/haukened/rr-scope/internal/scope/services/rules"
)

// patternRuleName also names the hit report file.
const patternRuleName = "listRegexFilterOut"

// Application holds the wired rule sequence and queue policy.
type Application struct {
	config   *config.AppConfig
	rules    *rules.Sequence
	policy   queue.Policy
	hosts    hostcache.Cache
	patterns *rules.PatternRule // nil when no pattern source is configured
	logger   log.Logger
}

// Result is the outcome for one candidate.
type Result struct {
	Candidate domain.Candidate
	Verdict   domain.Verdict
	QueueKey  string // empty unless accepted
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	hosts, err := hostcache.New(cfg.HostCacheSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create host cache: %w", err)
	}

	policy, err := queue.NewPolicy(cfg.QueuePolicy, cfg.QueueLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue policy: %w", err)
	}

	app := &Application{config: cfg, policy: policy, hosts: hosts, logger: logger}
	seq, err := app.buildRules(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build rules: %w", err)
	}
	app.rules = seq

	log.Info(map[string]any{
		"rules":        len(seq.Rules()),
		"queue_policy": cfg.QueuePolicy,
		"queue_limit":  cfg.QueueLimit,
		"host_cache":   cfg.HostCacheSize,
	}, "application_built")
	return app, nil
}

// buildRules assembles the sequence. Later rules override earlier ones, so the
// default decision comes first and the trap guard near the end.
func (app *Application) buildRules(cfg *config.AppConfig, logger log.Logger) (*rules.Sequence, error) {
	var seq []rules.Rule

	def, err := domain.ParseDecision(cfg.DefaultDecision)
	if err != nil {
		return nil, err
	}
	if def == domain.DecisionReject {
		seq = append(seq, rules.NewRejectRule("default"))
	} else {
		seq = append(seq, rules.NewAcceptRule("default"))
	}

	if len(cfg.SurtPrefixes) > 0 || cfg.SurtPrefixSource != "" {
		d, err := domain.ParseDecision(cfg.SurtPrefixDecision)
		if err != nil {
			return nil, err
		}
		set := surtprefix.New(logger)
		for _, p := range cfg.SurtPrefixes {
			if _, err := set.Add(p); err != nil {
				logger.Warn(map[string]any{"entry": p, "error": err}, "skip_invalid_entry")
			}
		}
		seq = append(seq, rules.NewSurtPrefixRule(rules.SurtPrefixOptions{
			Name:     "surtPrefixes",
			Decision: d,
			Prefixes: set,
			Source:   source.NewFileSource(cfg.SurtPrefixSource),
			Logger:   logger,
		}))
	}

	if len(cfg.AddressRanges) > 0 {
		d, err := domain.ParseDecision(cfg.AddressDecision)
		if err != nil {
			return nil, err
		}
		strategy, err := addrset.ParseStrategy(cfg.AddressStrategy)
		if err != nil {
			return nil, err
		}
		ranges := addrset.New(addrset.Options{
			Strategy:      strategy,
			MaxEnumerated: cfg.AddressMaxEnumerated,
			Bloom:         bloom.NewFactory(),
			Logger:        logger,
		})
		ranges.Configure(cfg.AddressRanges)
		ranges.Build()
		seq = append(seq, rules.NewAddressRule(rules.AddressOptions{
			Name:     "ipAddressSet",
			Decision: d,
			Ranges:   ranges,
			Hosts:    app.hosts,
			Logger:   logger,
		}))
	}

	if cfg.PatternSource != "" {
		d, err := domain.ParseDecision(cfg.PatternDecision)
		if err != nil {
			return nil, err
		}
		logic, err := patterns.ParseLogic(cfg.PatternLogic)
		if err != nil {
			return nil, err
		}
		app.patterns = rules.NewPatternRule(rules.PatternOptions{
			Name:     patternRuleName,
			Decision: d,
			List:     patterns.New(patterns.Options{Logic: logic, Logger: logger}),
			Source:   source.NewFileSource(cfg.PatternSource),
			Logger:   logger,
		})
		seq = append(seq, app.patterns)
	}

	if cfg.RevisitDecision != "" {
		d, err := domain.ParseDecision(cfg.RevisitDecision)
		if err != nil {
			return nil, err
		}
		seq = append(seq, rules.NewRevisitRule("hasRevisitProfile", d))
	}

	seq = append(seq, rules.NewPathSegmentRule(rules.PathSegmentOptions{
		Name:           "pathSegments",
		MaxIdentical:   cfg.SegmentsMaxIdentical,
		MaxConsecutive: cfg.SegmentsMaxConsecutive,
		Logger:         logger,
	}))

	return rules.NewSequence(rules.SequenceOptions{Name: "scope", Rules: seq, Logger: logger}), nil
}

// Prepare imports external rule sources. It must complete before Evaluate is called.
func (app *Application) Prepare(ctx context.Context) error {
	return app.rules.Prepare(ctx)
}

// Remember records a resolved address for later candidates of the same host.
func (app *Application) Remember(c domain.Candidate) {
	if c.HasAddr() {
		app.hosts.Put(c.Host(), c.Addr, app.config.HostCacheTTL)
	}
}

// Evaluate decides c and, when accepted, assigns its queue.
func (app *Application) Evaluate(c domain.Candidate) Result {
	res := Result{Candidate: c, Verdict: app.rules.Decide(c)}
	if res.Verdict.Accepted() {
		res.QueueKey = app.policy.QueueKey(c)
	}
	return res
}

// WriteReport writes the pattern hit report to the configured path. A path
// naming a directory receives "<rule>-report.txt" inside it.
func (app *Application) WriteReport() error {
	if app.patterns == nil || app.config.ReportPath == "" {
		return nil
	}
	path := app.config.ReportPath
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, app.patterns.ReportName())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := app.patterns.WriteReport(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Info(map[string]any{"path": path}, "pattern_report_written")
	return nil
}
