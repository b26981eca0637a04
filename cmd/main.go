package main

import (
	"os"

	"github.com/JFK/kagura-ai-sub000/cmd/kagura"
)

func main() {
	if err := kagura.Execute(); err != nil {
		os.Exit(1)
	}
}
