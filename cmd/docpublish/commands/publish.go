package commands

import (
	"context"
	"encoding/json"
	"fmt"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// PublishCmd runs one publish from a request file.
type PublishCmd struct {
	Request string `arg:"" type:"existingfile" help:"Publish request JSON file"`
	Token   string `short:"t" required:"" env:"DOCPUBLISH_TOKEN" help:"Bearer token of the publishing owner"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()

	req, err := readRequest(p.Request)
	if err != nil {
		return err
	}

	rt, err := BuildRuntime(ctx, cfg, g.Logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer func() { _ = rt.Close() }()

	who, err := rt.Resolver.Resolve(ctx, p.Token)
	if err != nil {
		return err
	}

	rep, err := rt.Pipeline.Publish(ctx, who, req)
	if rep != nil {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		if eerr := enc.Encode(rep); eerr != nil {
			g.Logger.Warn("Failed to print report", "error", eerr)
		}
	}
	if err != nil {
		if c, ok := derrors.AsClassified(err); ok {
			if id, ok := c.Context().GetString(derrors.ContextAlertID); ok {
				return fmt.Errorf("publish failed (alert %s): %w", id, err)
			}
		}
		return err
	}
	return nil
}
