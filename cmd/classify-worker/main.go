package main

import (
	"os"

	"github.com/avclabs/faxdesk/classifyworker"
)

func main() {
	if err := classifyworker.Run(); err != nil {
		os.Exit(1)
	}
}
