package main

import (
	"os"

	"github.com/avclabs/faxdesk/faxdeskservice"
)

func main() {
	if err := faxdeskservice.Run(); err != nil {
		os.Exit(1)
	}
}
