package main

import (
	"github.com/kindred-systems/repotool/cmd/repotool/internal"
)

func main() {
	internal.Execute()
}
