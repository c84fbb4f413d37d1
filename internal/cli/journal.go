package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
	"github.com/spf13/cobra"
)

// PromptBinder asks on stdin for a journal destination, offering a
// default path. Entering q (or closing stdin) aborts the binding.
type PromptBinder struct {
	DefaultPath string
	In          io.Reader
	Out         io.Writer
}

// NewPromptBinder creates a Binder prompting on stdin/stdout.
func NewPromptBinder(defaultPath string) *PromptBinder {
	return &PromptBinder{DefaultPath: defaultPath, In: os.Stdin, Out: os.Stdout}
}

// Bind prompts for the journal file path.
func (b *PromptBinder) Bind() (string, error) {
	fmt.Fprintf(b.Out, "Journal file [%s] (q to cancel): ", b.DefaultPath)

	reader := bufio.NewReader(b.In)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", storage.ErrAborted
	}

	input = strings.TrimSpace(input)
	if input == "q" {
		return "", storage.ErrAborted
	}
	if input == "" {
		return b.DefaultPath, nil
	}
	return input, nil
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Browse and edit the session journal",
}

var journalListLimit int

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := Journal.ReadAll()
		if err != nil {
			if errors.Is(err, storage.ErrNotBound) {
				fmt.Println("Journal not bound. Run 'focal journal bind' first.")
				return nil
			}
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Journal is empty.")
			return nil
		}

		if journalListLimit > 0 && journalListLimit < len(entries) {
			entries = entries[:journalListLimit]
		}

		for _, e := range entries {
			label := "note   "
			if e.Type == models.EntrySession {
				label = fmt.Sprintf("%2d min ", e.Duration)
			}
			fmt.Printf("%s  %s  %s  %s\n",
				e.EndTime.Local().Format("2006-01-02 15:04"),
				label,
				shortID(e.SessionID),
				truncate(e.SummaryText, 72))
		}
		return nil
	},
}

var journalNoteCmd = &cobra.Command{
	Use:   "note <text>...",
	Short: "Append a free-standing note to the journal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Timer.AddNote(strings.Join(args, " ")); err != nil {
			if errors.Is(err, storage.ErrAborted) {
				fmt.Println("Binding cancelled; note not written.")
				return nil
			}
			return err
		}
		fmt.Println("Note appended.")
		return nil
	},
}

var journalEditCmd = &cobra.Command{
	Use:   "edit <session-id> <summary>...",
	Short: "Replace the summary of an existing entry",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		summary := strings.Join(args[1:], " ")

		if err := Timer.EditEntry(sessionID, summary); err != nil {
			if errors.Is(err, storage.ErrEntryNotFound) {
				return fmt.Errorf("no journal entry with session ID %s", sessionID)
			}
			return err
		}
		fmt.Printf("Entry %s updated.\n", shortID(sessionID))
		return nil
	},
}

var journalBindCmd = &cobra.Command{
	Use:   "bind [path]",
	Short: "Choose the journal file",
	Long: `Bind the journal to a file. With a path argument the binding is stored
directly; without one an interactive prompt offers the configured
default. Rebinding replaces the previous choice.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			p, err := NewPromptBinder(Config.Journal.DefaultPath).Bind()
			if err != nil {
				if errors.Is(err, storage.ErrAborted) {
					fmt.Println("Binding cancelled.")
					return nil
				}
				return err
			}
			path = p
		}

		binding := models.JournalBinding{
			Path:    path,
			Mode:    models.ModeReadWrite,
			BoundAt: time.Now().UTC(),
		}
		if err := Caps.Store(binding); err != nil {
			return err
		}
		fmt.Printf("Journal bound to %s\n", path)
		return nil
	},
}

var journalUnbindCmd = &cobra.Command{
	Use:   "unbind",
	Short: "Forget the journal file binding",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Caps.Clear(); err != nil {
			return err
		}
		fmt.Println("Journal binding cleared.")
		return nil
	},
}

func init() {
	journalListCmd.Flags().IntVar(&journalListLimit, "limit", 0, "maximum entries to show (0 for all)")
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalNoteCmd)
	journalCmd.AddCommand(journalEditCmd)
	journalCmd.AddCommand(journalBindCmd)
	journalCmd.AddCommand(journalUnbindCmd)
	rootCmd.AddCommand(journalCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
