// Package cli is the terminal client. Each subcommand parses its own flag
// set and talks to the same inbound ports the HTTP adapter serves.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/request"
)

// ErrUsage reports a malformed command line. Usage has already been printed.
var ErrUsage = errors.New("usage error")

type Services struct {
	Processor ports.TextProcessor
	Catalog   ports.Catalog
	Chat      ports.ChatService
	Learning  ports.LearningService
	Extractor ports.TextExtractor
}

type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// MarkdownStyle is a glamour standard style name. Empty selects the
	// style from the terminal background.
	MarkdownStyle string
	Width         int
}

type CLI struct {
	services Services
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	width    int
	markdown *glamour.TermRenderer
}

func New(services Services, options Options) (*CLI, error) {
	if options.Stdin == nil {
		options.Stdin = os.Stdin
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	if options.Stderr == nil {
		options.Stderr = os.Stderr
	}
	if options.Width <= 0 {
		options.Width = 80
	}

	style := glamour.WithAutoStyle()
	if options.MarkdownStyle != "" {
		style = glamour.WithStandardStyle(options.MarkdownStyle)
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(options.Width))
	if err != nil {
		return nil, fmt.Errorf("init markdown renderer: %w", err)
	}

	return &CLI{
		services: services,
		in:       options.Stdin,
		out:      options.Stdout,
		errOut:   options.Stderr,
		width:    options.Width,
		markdown: renderer,
	}, nil
}

type command struct {
	name    string
	summary string
	run     func(c *CLI, ctx context.Context, args []string) error
}

var commands = []command{
	{"tasks", "list the supported NLP tasks", (*CLI).runTasks},
	{"process", "run one task and print the rendered result", (*CLI).runProcess},
	{"sample", "print the sample text for a task", (*CLI).runSample},
	{"explain", "explain how a task works", (*CLI).runExplain},
	{"code", "print a library code sample", (*CLI).runCode},
	{"learn", "generate learning material on a topic", (*CLI).runLearn},
	{"chat", "chat with the NLP assistant", (*CLI).runChat},
	{"shell", "interactive playground", (*CLI).runShell},
}

// Run executes the subcommand named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.usage()
		return ErrUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		c.usage()
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(c, ctx, args[1:])
		}
	}
	fmt.Fprintf(c.errOut, "unknown command %q\n\n", name)
	c.usage()
	return ErrUsage
}

func (c *CLI) usage() {
	fmt.Fprintln(c.errOut, "Usage: linguista <command> [flags]")
	fmt.Fprintln(c.errOut)
	fmt.Fprintln(c.errOut, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(c.errOut, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(c.errOut)
	fmt.Fprintln(c.errOut, "Run 'linguista <command> -h' for command flags.")
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

// parse maps flag errors to ErrUsage; -h is not an error.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return flag.ErrHelp
		}
		return ErrUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return ErrUsage
	}
	return nil
}

func helpOK(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func (c *CLI) runTasks(_ context.Context, args []string) error {
	fs := c.flagSet("tasks")
	format := fs.String("o", string(FormatTable), "output format: table, json, yaml, xlsx")
	outPath := fs.String("out", "", "file to write (required for xlsx)")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}
	return c.emit(Format(*format), *outPath, taskList(c.services.Catalog.Tasks()))
}

func (c *CLI) runProcess(ctx context.Context, args []string) error {
	fs := c.flagSet("process")
	task := fs.String("task", string(domain.TaskTokenization), "task id (see 'tasks')")
	library := fs.String("library", string(domain.LibraryNLTK), "nltk or spacy")
	text := fs.String("text", "", "text to analyze")
	file := fs.String("file", "", "read the text from a UTF-8 or PDF file")
	compare := fs.String("compare", "", "comparison text for text_similarity")
	compareFile := fs.String("compare-file", "", "read the comparison text from a file")
	format := fs.String("o", string(FormatTable), "output format: table, json, yaml, xlsx")
	outPath := fs.String("out", "", "file to write (required for xlsx)")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}

	primary, err := c.textInput(ctx, *text, *file)
	if err != nil {
		return err
	}
	comparison, err := c.textInput(ctx, *compare, *compareFile)
	if err != nil {
		return err
	}

	analysis, err := c.services.Processor.Process(ctx, request.Input{
		Task:           *task,
		Library:        *library,
		Text:           primary,
		ComparisonText: comparison,
	})
	if err != nil {
		return userError(err, "processing your request")
	}
	return c.emit(Format(*format), *outPath, analysisOutput{analysis: analysis, width: c.width / 2})
}

// textInput returns inline text, or the text extracted from path when set.
func (c *CLI) textInput(ctx context.Context, inline, path string) (string, error) {
	if path == "" {
		return inline, nil
	}
	if inline != "" {
		return "", fmt.Errorf("use either inline text or a file, not both")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := c.services.Extractor.Extract(ctx, path, data)
	if err != nil {
		return "", userError(err, "reading the file")
	}
	return text, nil
}

func (c *CLI) runSample(ctx context.Context, args []string) error {
	fs := c.flagSet("sample")
	task := fs.String("task", string(domain.TaskTokenization), "task id")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}
	sample, err := c.services.Catalog.SampleText(ctx, *task)
	if err != nil {
		return userError(err, "loading the sample text")
	}
	fmt.Fprintln(c.out, sample.Text)
	if sample.ComparisonText != "" {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, sample.ComparisonText)
	}
	return nil
}

func (c *CLI) runExplain(ctx context.Context, args []string) error {
	fs := c.flagSet("explain")
	task := fs.String("task", string(domain.TaskTokenization), "task id")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}
	exp, err := c.services.Catalog.Explanation(ctx, *task)
	if err != nil {
		return userError(err, "loading the explanation")
	}
	fmt.Fprintln(c.out, heading(exp.Title))
	for _, part := range []struct{ title, body string }{
		{"What is it?", exp.What},
		{"Why is it useful?", exp.Why},
		{"How with NLTK", exp.How.NLTK},
		{"How with spaCy", exp.How.SpaCy},
	} {
		if strings.TrimSpace(part.body) == "" {
			continue
		}
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, subheading(part.title))
		fmt.Fprintln(c.out, htmlToText(part.body))
	}
	return nil
}

func (c *CLI) runCode(ctx context.Context, args []string) error {
	fs := c.flagSet("code")
	sampleType := fs.String("type", domain.CodeSampleTypes[0], "one of: "+strings.Join(domain.CodeSampleTypes, ", "))
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}
	sample, err := c.services.Catalog.CodeSample(ctx, *sampleType)
	if err != nil {
		return userError(err, "loading the code sample")
	}
	fmt.Fprintln(c.out, sample.Code)
	return nil
}

func (c *CLI) runLearn(ctx context.Context, args []string) error {
	fs := c.flagSet("learn")
	topic := fs.String("topic", "", "topic to learn about")
	level := fs.String("level", string(domain.LevelBeginner), "beginner, intermediate or advanced")
	raw := fs.Bool("raw", false, "print the markdown source")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}
	content, err := c.services.Learning.Generate(ctx, *topic, *level)
	if err != nil {
		return userError(err, "generating learning content")
	}
	if *raw {
		fmt.Fprintln(c.out, content.Markdown)
		return nil
	}
	return c.printMarkdown(content.Markdown)
}

func (c *CLI) printMarkdown(md string) error {
	rendered, err := c.markdown.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(c.out, rendered)
	return err
}

// userError keeps the message a user should see and drops internal context.
func userError(err error, action string) error {
	if domain.IsKind(err, domain.ErrNotFound) {
		return errors.New("not found")
	}
	return errors.New(domain.UserMessage(err, action))
}
