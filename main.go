package main

import (
	"os"

	"github.com/stevehiehn/theaterdash/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
