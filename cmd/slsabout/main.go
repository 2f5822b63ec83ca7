package main

import (
	"os"

	"github.com/Financial-Times/serverless-plugin-about/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
