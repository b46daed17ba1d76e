package main

import (
	"log"

	"github.com/echoline/echoline/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal(err)
	}
}
