package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/klubi/furrow/internal/config"
	"github.com/klubi/furrow/internal/history"
)

// historySummary is the -o json|yaml shape of the stored conversation.
type historySummary struct {
	Path      string    `json:"path" yaml:"path"`
	Turns     int       `json:"turns" yaml:"turns"`
	User      int       `json:"user" yaml:"user"`
	Assistant int       `json:"assistant" yaml:"assistant"`
	Tool      int       `json:"tool" yaml:"tool"`
	First     time.Time `json:"first" yaml:"first"`
	Last      time.Time `json:"last" yaml:"last"`
}

func runShowHistory(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := store.Summary()
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	view := historySummary{
		Path:      cfg.History.Path,
		Turns:     sum.Total,
		User:      sum.ByRole[history.RoleUser],
		Assistant: sum.ByRole[history.RoleAssistant],
		Tool:      sum.ByRole[history.RoleTool],
		First:     sum.First,
		Last:      sum.Last,
	}

	switch outputFormat {
	case "json":
		return printJSON(view)
	case "yaml":
		return printYAML(view)
	}

	if sum.Total == 0 {
		fmt.Println("No stored conversation.")
		return nil
	}
	fmt.Printf("Conversation log: %s\n\n", cfg.History.Path)
	printTable(
		[]string{"TURNS", "USER", "ASSISTANT", "TOOL", "LAST"},
		[][]string{{
			strconv.Itoa(view.Turns),
			strconv.Itoa(view.User),
			strconv.Itoa(view.Assistant),
			strconv.Itoa(view.Tool),
			formatAge(view.Last),
		}},
	)
	return nil
}

func runClearHistory(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := store.Summary()
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	fmt.Printf("Cleared %d turns from %s\n", sum.Total, cfg.History.Path)
	return nil
}
