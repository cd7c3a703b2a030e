package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/klubi/furrow/internal/agent"
	"github.com/klubi/furrow/internal/llm"
)

// maxInputLine bounds a single prompt line read from stdin.
const maxInputLine = 1 << 20

// runREPL reads prompts until EOF, "exit", or a cancelled context. Errors
// from an exchange are shown and the session keeps going.
func runREPL(ctx context.Context, loop *agent.Agent, model string) error {
	bold := color.New(color.FgCyan, color.Bold)
	bold.Println("Furrow interactive agent")
	fmt.Printf("Model: %s. Type 'exit' or press Ctrl+D to leave.\n\n", model)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		answer, err := loop.Run(ctx, line)
		if err != nil {
			printExchangeError(err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Println(answer)
		fmt.Println()
	}

	fmt.Println("Bye")
	return scanner.Err()
}

// readPromptLine asks for a single prompt on stdin, for invocations that
// pass neither a prompt argument nor --repl.
func readPromptLine() (string, error) {
	fmt.Print("Enter prompt: ")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no prompt given")
	}
	prompt := strings.TrimSpace(scanner.Text())
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

// printExchangeError reports a failed exchange without ending the session.
func printExchangeError(err error) {
	var transport *llm.TransportError
	switch {
	case errors.Is(err, agent.ErrLoopLimitExceeded):
		color.Yellow("The model kept calling tools without answering: %v", err)
	case errors.As(err, &transport):
		color.Red("Error talking to the model: %v", transport.Err)
	default:
		color.Red("Error: %v", err)
	}
}
