// Command seed creates a database pre-filled with sample members and books so
// the app can be tried without registering everything by hand.
// Usage: go run cmd/seed/main.go [-db path/to/lendingroom.db]
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/lendingroom/lendingroom/internal/auth"
	"github.com/lendingroom/lendingroom/internal/config"
	"github.com/lendingroom/lendingroom/internal/database"
	"github.com/lendingroom/lendingroom/internal/database/books"
	"github.com/lendingroom/lendingroom/internal/database/users"
	"github.com/lendingroom/lendingroom/internal/entities"
)

func main() {
	dbPath := flag.String("db", config.DefaultDatabasePath, "path to the database file")
	flag.Parse()

	log.Printf("Seeding database at %s...", *dbPath)

	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	usersRepo := users.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	service := auth.NewService(usersRepo, config.Auth{BcryptCost: config.DefaultBcryptCost})

	members := seedMembers(service)
	seedBooks(booksRepo, members)

	log.Println("Database seeded. Log in as admin / adminpass.")
}

type memberSpec struct {
	username  string
	password  string
	firstName string
	lastName  string
}

// seedMembers registers the sample accounts. The admin goes first and picks up
// the administrator flag through the normal first-account bootstrap.
func seedMembers(service *auth.Service) map[string]*entities.User {
	specs := []memberSpec{
		{"admin", "adminpass", "Ada", "Lovelace"},
		{"grace", "gracepass", "Grace", "Hopper"},
		{"alan", "alanpass", "Alan", "Turing"},
		{"edsger", "edsgerpass", "Edsger", "Dijkstra"},
	}

	members := make(map[string]*entities.User)
	for _, spec := range specs {
		user, err := service.Register(spec.username, spec.password, spec.firstName, spec.lastName)
		if err != nil {
			log.Printf("Failed to register %s: %v", spec.username, err)
			continue
		}
		members[spec.username] = user
		log.Printf("Registered: %s %s (%s)", user.FirstName, user.LastName, user.Username)
	}
	return members
}

type bookSpec struct {
	title      string
	author     string
	published  string
	borrowedBy string // username, empty for available books
}

func seedBooks(repo *books.Repository, members map[string]*entities.User) {
	specs := []bookSpec{
		{"The Go Programming Language", "Alan Donovan and Brian Kernighan", "2015-10-26", "grace"},
		{"Structure and Interpretation of Computer Programs", "Abelson and Sussman", "1985-07-01", ""},
		{"The Mythical Man-Month", "Frederick Brooks", "1975-01-01", "alan"},
		{"A Discipline of Programming", "Edsger Dijkstra", "1976-01-01", ""},
		{"The C Programming Language", "Kernighan and Ritchie", "1978-02-22", ""},
		{"Designing Data-Intensive Applications", "Martin Kleppmann", "2017-03-16", "grace"},
	}

	for _, spec := range specs {
		published, err := time.Parse("2006-01-02", spec.published)
		if err != nil {
			log.Printf("Bad published date for %s: %v", spec.title, err)
			continue
		}

		book := &entities.Book{
			Title:         spec.title,
			Author:        spec.author,
			PublishedDate: published,
		}
		if err := repo.Create(book); err != nil {
			log.Printf("Failed to save book %s: %v", spec.title, err)
			continue
		}
		log.Printf("Saved: %s by %s", book.Title, book.Author)

		if spec.borrowedBy != "" {
			borrower, ok := members[spec.borrowedBy]
			if !ok {
				continue
			}
			if err := repo.Borrow(book.ID, borrower.ID); err != nil {
				log.Printf("Failed to borrow %s for %s: %v", spec.title, spec.borrowedBy, err)
				continue
			}
			log.Printf("Borrowed: %s -> %s", book.Title, spec.borrowedBy)
		}
	}
}
