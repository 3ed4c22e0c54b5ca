package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/records"
)

// RegisterCmd creates the record that grants an owner a path.
type RegisterCmd struct {
	Path        string `arg:"" help:"Extension path"`
	Owner       string `required:"" help:"Identity id of the owner"`
	Description string `help:"Initial description"`
	State       string `default:"DEVELOPMENT" enum:"DEVELOPMENT,UNDER_REVIEW,LIVE,PRIVATE" help:"Review state"`
}

func (r *RegisterCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := publish.ValidatePath(r.Path); err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := BuildRuntime(ctx, cfg, g.Logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer func() { _ = rt.Close() }()

	rec := records.Record{
		Path:        r.Path,
		Owner:       r.Owner,
		Description: r.Description,
		State:       records.State(r.State),
	}
	if err := rt.Records.Create(ctx, rec); err != nil {
		return fmt.Errorf("register %s: %w", r.Path, err)
	}
	_, _ = fmt.Fprintf(g.Out, "registered %s for %s\n", r.Path, r.Owner)
	return nil
}
