package main

import (
	"log"

	"github.com/plati-tools/platiscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
