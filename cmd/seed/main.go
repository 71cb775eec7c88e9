// Command main seeds the database with the FAQ and activity catalog and,
// unless -catalog-only is set, with fake dancers, events, groups and posts.
package main

import (
	"flag"
	"log"

	"mundotango/internal/config"
	"mundotango/internal/database"
	"mundotango/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numEvents := flag.Int("events", defaults.NumEvents, "Number of events to create")
	numGroups := flag.Int("groups", defaults.NumGroups, "Number of groups to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	catalogOnly := flag.Bool("catalog-only", false, "Only upsert FAQs and activities")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	s := seed.NewSeeder(db)
	if *catalogOnly {
		fixtures, err := seed.LoadFixtures()
		if err != nil {
			log.Fatalf("Invalid fixtures: %v", err)
		}
		if err := s.SeedCatalog(fixtures); err != nil {
			log.Fatalf("Catalog seeding failed: %v", err)
		}
		log.Println("Catalog seeded")
		return
	}

	log.Printf("Target: %d users, %d events, %d groups, %d posts, clean=%v",
		*numUsers, *numEvents, *numGroups, *numPosts, *shouldClean)
	err = s.Run(seed.Options{
		NumUsers:    *numUsers,
		NumEvents:   *numEvents,
		NumGroups:   *numGroups,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done. Every seeded user has the password: %s", seed.DefaultPassword)
}
