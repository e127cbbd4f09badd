package interp_test

import (
	"context"
	"fmt"

	"github.com/ardnew/ftd/lang/interp"
)

func ExampleInterpreter() {
	const lib = "-- string greeting: Hello\n"

	const main = `-- import: lib
exposing: greeting

-- component greet:
caption name:

-- ftd.text: $greeting, $name

-- greet: World
`

	ctx := context.Background()
	x := interp.New()

	st, err := x.Interpret(ctx, "main", main)
	for err == nil {
		switch s := st.(type) {
		case *interp.StuckOnImport:
			fmt.Println("import", s.Module)

			st, err = x.ContinueAfterImport(ctx, s.Module, lib)

			continue

		case *interp.Done:
			fmt.Println(s.Document.Tree.Elements[0].Text("text"))
		}

		break
	}

	if err != nil {
		fmt.Println(err)
	}

	// Output:
	// import lib
	// Hello, World
}
