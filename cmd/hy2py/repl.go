package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	hy "github.com/nukata/hy-in-go"
	"github.com/nukata/hy-in-go/compiler"
	"github.com/nukata/hy-in-go/macros"
	"github.com/nukata/hy-in-go/pyast"
	"github.com/nukata/hy-in-go/reader"
	"github.com/peterh/liner"
)

const (
	prompt1  = "=> "
	prompt2  = "... "
	replName = "<repl>"
)

// repl shows the Python each entered form compiles to. Macros defined
// or required in one entry stay visible in the following ones.
type repl struct {
	opts    options
	ctx     *macros.Context
	c       *compiler.Compiler
	history string
}

func newREPL(o options) *repl {
	ctx := hy.NewContext(o.macroOptions())
	r := &repl{opts: o, ctx: ctx, c: compiler.New(ctx, hy.MainModule)}
	if home, err := os.UserHomeDir(); err == nil {
		r.history = filepath.Join(home, ".hy2py_history")
	}
	return r
}

func (r *repl) run() int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return completeMacro(hy.MacroNames(r.ctx, hy.MainModule), line, pos)
	})
	r.loadHistory(ln)
	defer r.saveHistory(ln)

	fmt.Printf("%s: enter Hy forms to see their Python; :quit or EOF exits\n", appName)
	for {
		src, err := r.readEntry(ln)
		if err == io.EOF {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit":
			return 0
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		r.show(src)
	}
}

// readEntry reads lines until they hold complete forms or fail to parse
// for some reason other than running out. Ctrl-C drops the entry.
func (r *repl) readEntry(ln *liner.State) (string, error) {
	var lines []string
	for {
		p := prompt1
		if len(lines) > 0 {
			p = prompt2
		}
		line, err := ln.Prompt(p)
		if err == liner.ErrPromptAborted {
			lines = nil
			continue
		}
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
		src := strings.Join(lines, "\n")
		if _, err := reader.ParseAll(src, replName); !reader.IsIncomplete(err) {
			return src, nil
		}
	}
}

// show prints the Python for each form of src. A failing form is reported
// and the rest still compile.
func (r *repl) show(src string) {
	forms, err := hy.ParseAll(src, replName)
	if err != nil {
		fmt.Fprint(os.Stderr, hy.FormatError(err, replName, src))
		return
	}
	if r.opts.models {
		dumpModels(os.Stdout, forms)
		return
	}
	for _, f := range forms {
		m, err := r.c.Compile(f)
		if err != nil {
			fmt.Fprint(os.Stderr, hy.FormatError(err, replName, src))
			continue
		}
		fmt.Print(pyast.Unparse(m))
	}
}

func (r *repl) loadHistory(ln *liner.State) {
	if r.history == "" {
		return
	}
	if f, err := os.Open(r.history); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
}

func (r *repl) saveHistory(ln *liner.State) {
	if r.history == "" {
		return
	}
	if f, err := os.Create(r.history); err == nil {
		ln.WriteHistory(f)
		f.Close()
	}
}

// completeMacro completes the word before rune offset pos against names.
func completeMacro(names []string, line string, pos int) (head string, completions []string, tail string) {
	rs := []rune(line)
	before, after := string(rs[:pos]), string(rs[pos:])
	start := strings.LastIndexAny(before, " \t\n([{'`~") + 1
	word := before[start:]
	for _, n := range names {
		if strings.HasPrefix(n, word) {
			completions = append(completions, n)
		}
	}
	sort.Strings(completions)
	return before[:start], completions, after
}
