package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dfryer1193/blogo/api"
	"github.com/dfryer1193/blogo/blog/application"
	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/dfryer1193/blogo/internal/config"
	"github.com/dustin/go-humanize"
)

// split renders a post file the way it would be stored and prints both fragments.
func split(cfg *config.Config, path string, asJSON bool, stdin io.Reader, out io.Writer) error {
	var (
		content []byte
		err     error
	)
	if path == "" || path == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	markdown := application.StripTitle(string(content))
	result := domain.SplitContent(markdown, application.NewMarkdownRenderer(cfg.BlogURL).RenderFunc())

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(api.Preview{
			Description: result.Description,
			Body:        result.Body,
			HasMore:     result.Description != "",
		})
	}

	fmt.Fprintf(out, "title: %s\n", application.ExtractTitle(string(content)))
	fmt.Fprintf(out, "description (%s):\n%s\n", humanize.Bytes(uint64(len(result.Description))), result.Description)
	fmt.Fprintf(out, "body (%s):\n%s", humanize.Bytes(uint64(len(result.Body))), result.Body)
	return nil
}
