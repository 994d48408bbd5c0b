package macros

import (
	_ "embed"
	"fmt"

	"github.com/nukata/hy-in-go/reader"
)

//go:embed core.hy
var coreSource string

// loadCoreSource defines the core macros written in Hy.
func loadCoreSource(c *Context) {
	forms, err := reader.ParseAll(coreSource, "core.hy")
	if err != nil {
		panic(fmt.Sprintf("core.hy: %v", err))
	}
	core := c.Core()
	for _, f := range forms {
		if _, err := c.Eval(f, core); err != nil {
			panic(fmt.Sprintf("core.hy: %v", err))
		}
	}
}
