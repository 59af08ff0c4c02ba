package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/example/clipdeck/internal/store"
)

type historyCmd struct {
	*root
	fs *flag.FlagSet

	op    string
	limit int
	all   bool

	args []string
}

func parseHistoryCmd(args []string, r *root) (*historyCmd, error) {
	cmd := &historyCmd{root: r}
	if len(args) == 0 {
		cmd.fs = flag.NewFlagSet("history", flag.ExitOnError)
		cmd.fs.Usage = usageFunc(cmd)
		return nil, &UsageError{of: cmd}
	}
	cmd.op = strings.ToLower(args[0])
	cmd.fs = flag.NewFlagSet("history "+cmd.op, flag.ExitOnError)
	cmd.fs.IntVar(&cmd.limit, "n", 20, "maximum number of entries to show")
	cmd.fs.BoolVar(&cmd.all, "all", false, "with clear: also remove pinned entries")
	cmd.fs.Usage = usageFunc(cmd)
	if err := cmd.fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: cmd}
		}
		return nil, err
	}
	cmd.args = cmd.fs.Args()

	switch cmd.op {
	case "list", "clear", "prune":
		if len(cmd.args) != 0 {
			return nil, &UsageError{of: cmd}
		}
	case "search":
		if len(cmd.args) != 1 {
			return nil, errors.New("history search requires a pattern")
		}
	case "pin", "unpin", "delete", "show":
		if len(cmd.args) != 1 {
			return nil, fmt.Errorf("history %s requires an entry id", cmd.op)
		}
	default:
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (h *historyCmd) FlagSet() *flag.FlagSet {
	return h.fs
}

func (h *historyCmd) Run() error {
	saveDir, err := h.config.ResolveSaveDir()
	if err != nil {
		return fmt.Errorf("resolve save directory: %w", err)
	}
	st, err := store.Open(saveDir)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer st.Close()

	switch h.op {
	case "list":
		items, err := st.List(h.limit, 0)
		if err != nil {
			return err
		}
		return printItems(items)
	case "search":
		items, err := st.Search(h.args[0], h.limit)
		if err != nil {
			return err
		}
		return printItems(items)
	case "show":
		id, err := parseID(h.args[0])
		if err != nil {
			return err
		}
		item, err := st.Get(id)
		if err != nil {
			return err
		}
		fmt.Println(item.Content)
		return nil
	case "pin", "unpin":
		id, err := parseID(h.args[0])
		if err != nil {
			return err
		}
		if err := st.SetPinned(id, h.op == "pin"); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "entry %d %sned\n", id, h.op)
		return nil
	case "delete":
		id, err := parseID(h.args[0])
		if err != nil {
			return err
		}
		if err := st.Delete(id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "entry %d deleted\n", id)
		return nil
	case "clear":
		if err := st.Clear(!h.all); err != nil {
			return err
		}
		if h.all {
			fmt.Fprintln(os.Stderr, "history cleared")
		} else {
			fmt.Fprintln(os.Stderr, "history cleared, pinned entries kept")
		}
		return nil
	case "prune":
		removed, err := st.Prune(h.config.History.MaxItems)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "removed %d entries\n", removed)
		return nil
	}
	return &UsageError{of: h}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

func printItems(items []store.Item) error {
	if len(items) == 0 {
		fmt.Println("history is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPIN\tKIND\tWHEN\tCONTENT")
	for _, it := range items {
		pin := " "
		if it.Pinned {
			pin = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			it.ID, pin, it.Kind, it.CreatedAt.Format("2006-01-02 15:04"), contentLabel(it))
	}
	return w.Flush()
}
