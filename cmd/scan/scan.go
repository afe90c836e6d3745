// Package scan implements the scan command.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/form-scanner/cmd/common"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/scanner"
)

type options struct {
	deep     bool
	json     bool
	classify bool
	watch    time.Duration
}

// Command returns the scan command.
func Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scan a page for forms and PDFs",
		Long: `Scan fetches a page, lists the form and PDF links it contains and checks
where implicit form links lead. With --deep it also scans up to three
paginated neighbour pages. With --watch it re-fetches the page on an interval
and reprints the list whenever the number of candidates changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			svc := scanner.FromConfig(deps.Config, deps.Logger)
			r := NewRenderer(cmd.OutOrStdout(), opts.json, opts.classify)

			if opts.watch > 0 {
				return watch(cmd.Context(), svc, r, args[0], opts.watch, deps.Logger)
			}

			result, err := svc.ScanURL(cmd.Context(), args[0], opts.deep)
			if err != nil {
				return err
			}
			return r.RenderScan(result)
		},
	}

	cmd.Flags().BoolVar(&opts.deep, "deep", false, "also scan paginated neighbour pages")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&opts.classify, "classify", false, "show the classifier decision for each candidate")
	cmd.Flags().DurationVar(&opts.watch, "watch", 0, "re-fetch the page on this interval until interrupted")

	return cmd
}

// watch scans pageURL once, then feeds every re-fetch to the session as a
// page mutation until ctx is done.
func watch(
	ctx context.Context,
	svc *scanner.Service,
	r *Renderer,
	pageURL string,
	interval time.Duration,
	log logger.Logger,
) error {
	if err := scanner.CheckPageURL(pageURL); err != nil {
		return err
	}

	doc, page, err := svc.Load(ctx, pageURL)
	if err != nil {
		return err
	}

	sess := svc.NewSession(page.URL)
	defer sess.Close()

	if err = r.RenderScan(sess.Scan(ctx, doc)); err != nil {
		return err
	}

	var mu sync.Mutex
	sess.OnUpdate(func(candidates []*domain.Candidate) {
		mu.Lock()
		defer mu.Unlock()
		if renderErr := r.RenderUpdate(pageURL, candidates); renderErr != nil {
			log.Warn("Failed to render update", logger.Error(renderErr))
		}
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next, _, loadErr := svc.Load(ctx, pageURL)
			if loadErr != nil {
				log.Warn("Re-fetch failed", logger.String("page_url", pageURL), logger.Error(loadErr))
				continue
			}
			sess.NotifyMutation(next)
		}
	}
}
