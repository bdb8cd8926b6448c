package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/changelog"
	"github.com/matzehuels/cellar/pkg/config"
	"github.com/matzehuels/cellar/pkg/layout"
	"github.com/matzehuels/cellar/pkg/store"
)

// session is the state of one command run against the database: the
// effective settings, the open store, the cellar loaded from it and the log
// of changes made so far.
type session struct {
	cfg    config.Config
	store  *store.Store
	cellar *cellar.Cellar
	log    *changelog.Log
	logger *log.Logger
}

// loadConfig resolves the settings for cmd from the config file, the
// environment and its flags.
func (c *CLI) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if cfg.File != "" {
		loggerFromContext(cmd.Context()).Debug("read config", "file", cfg.File)
	}
	return cfg, nil
}

// openSession loads the config, opens the database and reads the cellar.
// Callers must close the session.
func (c *CLI) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)
	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	cel, err := st.Load(cmd.Context())
	if err != nil {
		st.Close()
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d bottles from %s", len(cel.InCellar()), cfg.Database))

	return &session{
		cfg:    cfg,
		store:  st,
		cellar: cel,
		log:    changelog.New(),
		logger: logger,
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// year is the year layouts and reports are computed for.
func (s *session) year() int {
	return s.cfg.Year()
}

func (s *session) layoutOptions() layout.Options {
	return layout.Options{CurrentYear: s.year(), Logger: s.logger}
}

// commit prints the pending changes, asks for confirmation unless the
// session was started with --yes, and writes them in one transaction.
// Declining discards every change.
func (c *CLI) commit(ctx context.Context, s *session) error {
	if !s.log.HasChanges() {
		printInfo("Nothing to change")
		return nil
	}

	fmt.Print(renderChanges(s.cellar, s.log, s.year()))
	printNewline()

	if s.cfg.Confirm {
		ok, err := confirm(ctx, c.in, "Commit these changes?")
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			printWarning("Discarded %s", s.log.Summary())
			return nil
		}
	}

	prog := newProgress(s.logger)
	ids, err := s.store.Commit(ctx, s.log)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	prog.done("Committed session " + s.log.Session().String())

	printSuccess("Committed %s", s.log.Summary())
	if added := s.log.Bottles(); len(added) > 0 {
		stored := make([]int64, len(added))
		for i, b := range added {
			stored[i] = ids.Resolve(b.ID)
		}
		printDetail("new bottle IDs: %s", formatIDs(stored))
	}
	return nil
}

// formatIDs lists IDs in order, collapsing consecutive runs: "12-15, 18".
func formatIDs(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	var parts []string
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		if j == i {
			parts = append(parts, strconv.FormatInt(sorted[i], 10))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", sorted[i], sorted[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}

// parseID reads a bottle, label or winery ID argument.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, arg)
	}
	return id, nil
}
