package main

import (
	"os"

	"github.com/avclabs/faxdesk/ingestworker"
)

func main() {
	if err := ingestworker.Run(); err != nil {
		os.Exit(1)
	}
}
