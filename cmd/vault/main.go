package main

import (
	"log"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
