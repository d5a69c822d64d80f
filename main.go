package main

import (
	"os"

	"github.com/hollowprose/graphein/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
