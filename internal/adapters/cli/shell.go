package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/linguista/internal/core/chart"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/playground"
)

const shellHelp = `Commands:
  tasks                 list the tasks
  task <id>             select a task
  library <nltk|spacy>  select the library
  text <text>           set the text
  compare <text>        set the comparison text (text_similarity)
  file <path>           load the text from a UTF-8 or PDF file
  sample                load the sample text for the selected task
  run                   analyze the text
  state                 show the current selection
  help                  show this help
  quit                  leave the shell`

func (c *CLI) runShell(ctx context.Context, args []string) error {
	fs := c.flagSet("shell")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}

	// The surface draws into a buffer so the chart follows the result view.
	var charts bytes.Buffer
	pg := playground.New(c.services.Processor, chart.NewSurface(chart.TextCanvas{Out: &charts, Width: c.width / 2}))

	fmt.Fprintln(c.out, "linguista playground. Type 'help' for commands.")
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprintf(c.errOut, "%s> ", pg.Snapshot().Task)
		if !scanner.Scan() {
			break
		}
		name, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		rest = strings.TrimSpace(rest)

		switch name {
		case "":
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(c.out, shellHelp)
		case "tasks":
			if err := taskList(c.services.Catalog.Tasks()).table(c.out); err != nil {
				return err
			}
		case "task":
			info, ok := domain.LookupTask(rest)
			if !ok {
				c.shellError(fmt.Errorf("unknown task %q", rest))
				continue
			}
			if err := pg.SelectTask(info.Task); err != nil {
				return err
			}
			charts.Reset()
			fmt.Fprintf(c.out, "task: %s\n", info.Label)
		case "library":
			lib := domain.ParseLibrary(rest)
			pg.SelectLibrary(lib)
			fmt.Fprintf(c.out, "library: %s\n", lib)
		case "text":
			pg.SetText(rest)
		case "compare":
			pg.SetComparisonText(rest)
		case "file":
			text, err := c.textInput(ctx, "", rest)
			if err != nil {
				c.shellError(err)
				continue
			}
			pg.SetText(text)
			fmt.Fprintf(c.out, "loaded %d characters\n", len([]rune(text)))
		case "sample":
			sample, err := c.services.Catalog.SampleText(ctx, string(pg.Snapshot().Task))
			if err != nil {
				c.shellError(userError(err, "loading the sample text"))
				continue
			}
			pg.SetText(sample.Text)
			if sample.ComparisonText != "" {
				pg.SetComparisonText(sample.ComparisonText)
			}
			fmt.Fprintln(c.out, sample.Text)
		case "run":
			snap, err := pg.Submit(ctx)
			if errors.Is(err, playground.ErrStaleResponse) {
				continue
			}
			if snap.Err != "" {
				c.shellError(errors.New(snap.Err))
				continue
			}
			if err != nil {
				return err
			}
			if err := writeView(c.out, snap.Analysis.View, snap.Library); err != nil {
				return err
			}
			if charts.Len() > 0 {
				fmt.Fprintln(c.out)
				if _, err := io.Copy(c.out, &charts); err != nil {
					return err
				}
			}
		case "state":
			c.printState(pg.Snapshot())
		default:
			c.shellError(fmt.Errorf("unknown command %q, type 'help'", name))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (c *CLI) printState(s playground.Snapshot) {
	fmt.Fprintf(c.out, "task:     %s\n", s.Task)
	fmt.Fprintf(c.out, "library:  %s\n", s.Library)
	fmt.Fprintf(c.out, "text:     %s\n", preview(s.Text))
	if s.RequiresComparison() {
		fmt.Fprintf(c.out, "compare:  %s\n", preview(s.ComparisonText))
	}
}

func (c *CLI) shellError(err error) {
	fmt.Fprintln(c.errOut, errorStyle.Render("error: "+err.Error()))
}

func preview(s string) string {
	const limit = 60
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "(empty)"
	}
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "…"
	}
	return s
}
