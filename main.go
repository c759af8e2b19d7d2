package main

import (
	"os"

	"github.com/kishore1288/nodenewsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
