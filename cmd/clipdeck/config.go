package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/example/clipdeck/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: c}
		}
		return nil, err
	}
	return c, nil
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "path":
		fmt.Println(c.root.configPath)
		return nil
	case "print":
		return toml.NewEncoder(os.Stdout).Encode(c.root.config)
	case "save":
		if err := config.Save(c.root.configPath, c.root.config); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "configuration saved to %s\n", c.root.configPath)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}
