// hsmcheck lints declarative state tables before they ship: it validates
// structure, runs cycle detection, and can print the declared hierarchy.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-hsm/table"
	"github.com/goliatone/go-logger/glog"
)

var cli struct {
	Debug bool `help:"Enable debug logging." short:"D"`

	Validate ValidateCmd `cmd:"" help:"Validate a state table: structure plus cycle detection."`
	Tree     TreeCmd     `cmd:"" help:"Print the state hierarchy declared by a table."`
}

var logger glog.Logger

type ValidateCmd struct {
	Table string `arg:"" type:"existingfile" help:"Path to a YAML or JSON state table."`
}

func (c *ValidateCmd) Run() error {
	def, err := load(c.Table)
	if err != nil {
		return err
	}
	if err := def.Check(); err != nil {
		return err
	}
	fmt.Printf("%s: ok, %d states, initial state %q\n", c.Table, len(def.States), def.InitialState())
	return nil
}

type TreeCmd struct {
	Table string `arg:"" type:"existingfile" help:"Path to a YAML or JSON state table."`
}

func (c *TreeCmd) Run() error {
	def, err := load(c.Table)
	if err != nil {
		return err
	}

	children := make(map[string][]string, len(def.States))
	var roots []string
	for _, st := range def.States {
		if st.Parent == "" {
			roots = append(roots, st.Name)
			continue
		}
		children[st.Parent] = append(children[st.Parent], st.Name)
	}

	initial := def.InitialState()
	var print func(name string, depth int)
	print = func(name string, depth int) {
		marker := ""
		if len(children[name]) == 0 {
			marker = " (leaf)"
		}
		if name == initial {
			marker += " (initial)"
		}
		fmt.Printf("%s%s%s\n", strings.Repeat("  ", depth), name, marker)
		for _, child := range children[name] {
			print(child, depth+1)
		}
	}
	for _, root := range roots {
		print(root, 0)
	}
	return nil
}

func load(path string) (table.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return table.Definition{}, fmt.Errorf("read table: %w", err)
	}
	def, err := table.Parse(raw)
	if err != nil {
		return table.Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("parsed table name=%s states=%d", def.Name, len(def.States))
	return def, nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("hsmcheck"),
		kong.Description("Lint hierarchical state tables."),
		kong.UsageOnError(),
	)

	level := "info"
	if cli.Debug {
		level = "debug"
	}
	logger = glog.NewLogger(
		glog.WithWriter(os.Stderr),
		glog.WithLevel(level),
	)

	ctx.FatalIfErrorf(ctx.Run())
}
