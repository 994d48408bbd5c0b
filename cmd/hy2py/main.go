// Command hy2py translates Hy source files to Python. Without file
// arguments it starts an interactive session that shows the Python each
// input compiles to.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	hy "github.com/nukata/hy-in-go"
	"github.com/nukata/hy-in-go/macros"
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
)

const appName = "hy2py"

type options struct {
	out     string
	models  bool
	verbose bool
	path    string
}

func main() {
	var o options
	fs := flag.NewFlagSet(appName, flag.ExitOnError)
	fs.StringVar(&o.out, "o", "", "write Python to `file` instead of stdout")
	fs.BoolVar(&o.models, "models", false, "dump the models read instead of compiling them")
	fs.BoolVar(&o.verbose, "v", false, "trace macro expansion and require on stderr")
	fs.StringVar(&o.path, "I", "", "extra `dirs` (separated by "+string(os.PathListSeparator)+") searched by require")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags] [file.hy ...]   Translate files (- for stdin).\n  %s [flags]                 Start the REPL.\n\nFlags:\n", appName, appName)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		os.Exit(newREPL(o).run())
	}
	os.Exit(cmdTranslate(o, fs.Args()))
}

func (o options) macroOptions(dirs ...string) macros.Options {
	opts := macros.Options{SearchPath: append(dirs, ".")}
	if o.path != "" {
		opts.SearchPath = append(opts.SearchPath, filepath.SplitList(o.path)...)
	}
	if o.verbose {
		opts.Logger = log.New(os.Stderr, appName+": ", 0)
	}
	return opts
}

//----------------------------------------------------------------------

func cmdTranslate(o options, files []string) int {
	w := io.Writer(os.Stdout)
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		defer f.Close()
		w = f
	}
	for _, file := range files {
		if code := translate(o, file, w); code != 0 {
			return code
		}
	}
	return 0
}

func translate(o options, file string, w io.Writer) int {
	var src []byte
	var err error
	var dirs []string
	if file == "-" {
		src, err = io.ReadAll(os.Stdin)
		file = "<stdin>"
	} else {
		src, err = os.ReadFile(file)
		dirs = append(dirs, filepath.Dir(file))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	forms, err := hy.ParseAll(string(src), file)
	if err != nil {
		fmt.Fprint(os.Stderr, hy.FormatError(err, file, string(src)))
		return 1
	}
	if o.models {
		dumpModels(w, forms)
		return 0
	}
	m, err := hy.Compile(hy.NewContext(o.macroOptions(dirs...)), hy.MainModule, forms...)
	if err != nil {
		fmt.Fprint(os.Stderr, hy.FormatError(err, file, string(src)))
		return 1
	}
	fmt.Fprint(w, pyast.Unparse(m))
	return 0
}

func dumpModels(w io.Writer, forms []models.Model) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	for _, f := range forms {
		fmt.Fprintf(w, "%s\n", f.Repr())
		cfg.Fdump(w, f)
	}
}
