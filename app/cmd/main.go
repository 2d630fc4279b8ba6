package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kbrag/app/server"
	"kbrag/config"
)

func init() {
	loadEnvVariables()
}

func main() {
	s := server.New(config.Load())

	go func() {
		if err := s.Run(); err != nil {
			log.Fatal("error to start server: ", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}
