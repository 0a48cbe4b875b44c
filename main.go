package main

import (
	"os"

	"github.com/identilink/identilink/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
