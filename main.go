package main

import (
	"context"
	"log"
	"os"

	"audiocode-go/services/hal"
)

func main() {
	msg := log.New(os.Stdout, "audio-hal: ", log.Lmicroseconds)
	msg.Println("boot")

	if err := hal.Run(context.Background(), hal.Options{Logger: msg}); err != nil {
		msg.Fatalf("%v", err)
	}
}
