package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	out := flag.String("out", "", "write freshly generated vectors to this path")
	check := flag.String("check", "", "re-derive every vector in this fixture file")
	flag.Parse()

	switch {
	case *out != "" && *check == "":
		f, err := generate()
		if err != nil {
			fatalf("generate: %v", err)
		}
		mustWriteFixture(*out, f)
		_, _ = fmt.Fprintf(os.Stdout, "wrote %d vectors to %s\n", len(f.Vectors), *out)
	case *check != "" && *out == "":
		f := mustLoadFixture(*check)
		problems := checkFixture(f)
		for _, p := range problems {
			_, _ = fmt.Fprintln(os.Stderr, p)
		}
		if len(problems) > 0 {
			os.Exit(1)
		}
		_, _ = fmt.Fprintf(os.Stdout, "%s: %d vectors ok\n", f.Gate, len(f.Vectors))
	default:
		_, _ = fmt.Fprintln(os.Stderr, "usage: cc-vectors -out PATH | -check PATH")
		os.Exit(2)
	}
}
