package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/knowledgelearning"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := knowledgelearning.Main(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
