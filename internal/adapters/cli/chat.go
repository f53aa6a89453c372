package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/linguista/internal/core/chat"
	"github.com/kirillkom/linguista/internal/core/domain"
)

// codeTerminator ends a multi-line code block in the code chat modes.
const codeTerminator = "."

func (c *CLI) runChat(ctx context.Context, args []string) error {
	fs := c.flagSet("chat")
	mode := fs.String("mode", string(domain.ChatGeneral), "general, code_explanation or library_comparison")
	source := fs.String("source", string(domain.LibraryNLTK), "source library for library_comparison")
	target := fs.String("target", string(domain.LibrarySpaCy), "target library for library_comparison")
	noPerformance := fs.Bool("no-performance", false, "skip the performance notes in library_comparison")
	sessionID := fs.String("session", "", "resume a stored session")
	if err := parse(fs, args); err != nil {
		return helpOK(err)
	}

	var (
		transcript chat.Transcript
		err        error
	)
	if *sessionID != "" {
		transcript, err = c.services.Chat.Transcript(ctx, *sessionID)
	} else {
		transcript, err = c.services.Chat.Open(ctx)
	}
	if err != nil {
		return userError(err, "starting the chat")
	}

	chatMode := domain.ChatMode(*mode)
	codeMode := chatMode == domain.ChatCodeExplanation || chatMode == domain.ChatLibraryComparison
	fmt.Fprintf(c.errOut, "session %s (mode %s). Type /quit to leave.\n", transcript.ID, chatMode)
	if codeMode {
		fmt.Fprintf(c.errOut, "Paste code and end it with a line containing only %q.\n", codeTerminator)
	}
	seen, err := c.printMessages(transcript.Messages, 0)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		input, ok := c.readChatInput(scanner, codeMode)
		if !ok {
			break
		}
		if input == "" {
			continue
		}

		req := domain.ChatRequest{Type: chatMode}
		if codeMode {
			req.Code = input
		} else {
			req.Message = input
		}
		if chatMode == domain.ChatLibraryComparison {
			includePerformance := !*noPerformance
			req.SourceLibrary = *source
			req.TargetLibrary = *target
			req.IncludePerformance = &includePerformance
		}

		updated, err := c.services.Chat.Send(ctx, transcript.ID, req)
		if err != nil {
			fmt.Fprintln(c.errOut, errorStyle.Render(userError(err, "sending your message").Error()))
			continue
		}
		if seen, err = c.printMessages(updated.Messages, seen); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// readChatInput returns the next message, or false at end of input or /quit.
func (c *CLI) readChatInput(scanner *bufio.Scanner, codeMode bool) (string, bool) {
	fmt.Fprint(c.errOut, "> ")
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) == 0 {
			switch strings.TrimSpace(line) {
			case "/quit", "/exit":
				return "", false
			}
		}
		if !codeMode {
			return strings.TrimSpace(line), true
		}
		if strings.TrimSpace(line) == codeTerminator {
			return strings.TrimSpace(strings.Join(lines, "\n")), true
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		return strings.TrimSpace(strings.Join(lines, "\n")), true
	}
	return "", false
}

// printMessages prints replies newer than seen and returns the highest id
// printed. The user's own messages and pending entries are skipped.
func (c *CLI) printMessages(messages []domain.ChatMessage, seen int64) (int64, error) {
	for _, msg := range messages {
		if msg.ID <= seen {
			continue
		}
		seen = msg.ID
		if msg.Role == domain.RoleUser || msg.Role == domain.RolePending {
			continue
		}
		fmt.Fprintf(c.out, "%s:\n", roleLabel(msg))
		if msg.Error {
			fmt.Fprintln(c.out, errorStyle.Render(msg.Content))
			continue
		}
		if err := c.printMarkdown(msg.Content); err != nil {
			return seen, err
		}
	}
	return seen, nil
}
