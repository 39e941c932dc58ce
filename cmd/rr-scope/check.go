package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
	"github.com/haukened/rr-scope/internal/scope/repos/parsers"
)

// revisitToken marks a candidate line as carrying a revisit profile.
const revisitToken = "revisit"

var errEmptyLine = errors.New("no url on line")

// NewCheckCmd creates the check command.
func NewCheckCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Decide candidate URLs read from a file or stdin",
		Long: `Reads one candidate per line as "url [ip] [revisit]" and prints
"DECISION<TAB>rule<TAB>url<TAB>extra" in input order. Accepted URLs carry their
queue name in extra as {"queueName": ...}.

Addresses given on any line are remembered for other URLs of the same host.
Blank lines and lines starting with '#' are ignored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in, name = f, args[0]
			}
			return runCheck(cmd.Context(), st, in, name, cmd.OutOrStdout())
		},
	}
}

func runCheck(ctx context.Context, st *state, in io.Reader, name string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := buildApplication(st.cfg)
	if err != nil {
		return err
	}
	if err := app.Prepare(ctx); err != nil {
		return err
	}

	candidates, err := readCandidates(in, name, log.GetLogger())
	if err != nil {
		return err
	}
	for _, c := range candidates {
		app.Remember(c)
	}

	results, err := evaluateAll(ctx, app, candidates, st.cfg.Workers)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	for _, r := range results {
		if err := writeResult(w, r); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return app.WriteReport()
}

// evaluateAll decides every candidate with at most workers goroutines.
// Results keep input order.
func evaluateAll(ctx context.Context, app *Application, candidates []domain.Candidate, workers int) ([]Result, error) {
	results := make([]Result, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = app.Evaluate(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readCandidates(r io.Reader, name string, logger log.Logger) ([]domain.Candidate, error) {
	var out []domain.Candidate
	_, err := parsers.ScanLines(r, name, logger, func(_ int, line string) error {
		c, err := parseCandidate(line)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseCandidate parses "url [ip] [revisit]". The optional fields may appear
// in either order.
func parseCandidate(line string) (domain.Candidate, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Candidate{}, errEmptyLine
	}
	c := domain.NewCandidate(fields[0])
	for _, f := range fields[1:] {
		if strings.EqualFold(f, revisitToken) {
			c = c.WithRevisit(true)
			continue
		}
		addr, err := netip.ParseAddr(f)
		if err != nil {
			return domain.Candidate{}, fmt.Errorf("unexpected field %q", f)
		}
		c = c.WithAddr(addr)
	}
	return c, nil
}

type extraInfo struct {
	QueueName string `json:"queueName,omitempty"`
}

func writeResult(w io.Writer, r Result) error {
	rule := r.Verdict.Rule
	if rule == "" {
		rule = "-"
	}
	extra, err := json.Marshal(extraInfo{QueueName: r.QueueKey})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Verdict.Decision, rule, r.Candidate.URL, extra)
	return err
}
