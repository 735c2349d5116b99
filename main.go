package main

import (
	"github.com/AzielCF/az-posts/cmd"
)

func main() {
	cmd.Execute()
}
