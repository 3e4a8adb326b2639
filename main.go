package main

import (
	"log"

	"github.com/cvscore/cvscore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
