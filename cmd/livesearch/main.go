package main

import (
	"livesearch/cmd/cmd"
	"livesearch/internal/logger"
)

func main() {
	logger.Init("") // Initialize the logger
	cmd.Execute()
}
