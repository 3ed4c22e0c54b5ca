package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpublish/internal/publish"
)

// RenderCmd prints the main document and every subpage of a request.
type RenderCmd struct {
	Request string `arg:"" type:"existingfile" help:"Publish request JSON file"`
}

func (r *RenderCmd) Run(g *Global, _ *CLI) error {
	req, err := readRequest(r.Request)
	if err != nil {
		return err
	}
	if err := publish.Validate(req); err != nil {
		return err
	}
	docs := publish.Render(req)

	_, _ = fmt.Fprintf(g.Out, "==> %s\n%s\n", publish.DocumentKey(req.Path), docs.Main)
	for _, key := range docs.Keys() {
		_, _ = fmt.Fprintf(g.Out, "==> %s\n%s\n", publish.SubpageKey(req.Path, key), docs.Subpages[key])
	}
	for _, w := range docs.LinkWarnings(req.Path) {
		g.Logger.Warn("Link to unknown subpage", "warning", w.String())
	}
	return nil
}
