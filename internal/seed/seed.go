// Package seed fills a development database with catalog fixtures and
// generated community data.
package seed

import (
	_ "embed"
	"fmt"

	"mundotango/internal/models"
	"mundotango/internal/observability"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yml
var fixturesYAML []byte

// DefaultPassword is set on every generated user.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumEvents   int
	NumGroups   int
	NumPosts    int
	ShouldClean bool
}

// DefaultOptions is what cmd/seed uses without flags.
func DefaultOptions() Options {
	return Options{NumUsers: 30, NumEvents: 20, NumGroups: 8, NumPosts: 120, ShouldClean: true}
}

// Fixtures is the static catalog shipped with the binary.
type Fixtures struct {
	Faqs       []FaqFixture      `yaml:"faqs"`
	Activities []ActivityFixture `yaml:"activities"`
}

type FaqFixture struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type ActivityFixture struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Children    []ActivityFixture `yaml:"children"`
}

// LoadFixtures parses the embedded catalog.
func LoadFixtures() (*Fixtures, error) {
	return ParseFixtures(fixturesYAML)
}

func ParseFixtures(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Seeder writes seed data through GORM.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// Run seeds the catalog and then the generated community.
func (s *Seeder) Run(opts Options) error {
	log := observability.Logger
	log.Info("starting database seeding", "users", opts.NumUsers, "posts", opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Warn("could not clear existing data, continuing", "error", err)
		}
	}

	fixtures, err := LoadFixtures()
	if err != nil {
		return err
	}
	if err := s.SeedCatalog(fixtures); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	admin, err := s.factory.Admin()
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	users, err := s.factory.Users(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Info("users created", "count", len(users)+1, "admin", admin.Email)

	if err := s.factory.Friendships(users); err != nil {
		return fmt.Errorf("failed to create friendships: %w", err)
	}
	groups, err := s.factory.Groups(users, opts.NumGroups)
	if err != nil {
		return fmt.Errorf("failed to create groups: %w", err)
	}
	events, err := s.factory.Events(users, groups, opts.NumEvents)
	if err != nil {
		return fmt.Errorf("failed to create events: %w", err)
	}
	if _, err := s.factory.Posts(users, groups, events, opts.NumPosts); err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	if err := s.factory.Experiences(users); err != nil {
		return fmt.Errorf("failed to create experiences: %w", err)
	}

	log.Info("seeding complete", "groups", len(groups), "events", len(events), "password", DefaultPassword)
	return nil
}

// SeedCatalog inserts FAQs and the activity tree. Rows that already exist
// (by question or name) are left alone so the catalog can be reseeded.
func (s *Seeder) SeedCatalog(f *Fixtures) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, faq := range f.Faqs {
			row := models.Faq{Question: faq.Question, Answer: faq.Answer, SortOrder: i + 1}
			if err := tx.Where(models.Faq{Question: faq.Question}).FirstOrCreate(&row).Error; err != nil {
				return err
			}
		}
		return seedActivities(tx, nil, f.Activities)
	})
}

func seedActivities(tx *gorm.DB, parentID *uint, list []ActivityFixture) error {
	for _, a := range list {
		row := models.Activity{Name: a.Name, Description: a.Description, ParentID: parentID}
		if err := tx.Where("name = ?", a.Name).FirstOrCreate(&row).Error; err != nil {
			return err
		}
		id := row.ID
		if err := seedActivities(tx, &id, a.Children); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll hard-deletes every seeded table, children first.
func (s *Seeder) ClearAll() error {
	tables := []any{
		&models.ChatMessage{}, &models.ChatRoomUser{}, &models.ChatRoom{},
		&models.Notification{}, &models.Subscription{},
		&models.Comment{}, &models.Post{},
		&models.EventParticipant{}, &models.Event{},
		&models.GroupMember{}, &models.Group{},
		&models.Friend{},
		&models.DanceExperience{}, &models.OrganizerExperience{}, &models.TeacherExperience{},
		&models.Activity{}, &models.Faq{},
		&models.User{},
	}
	for _, t := range tables {
		if err := s.db.Unscoped().Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	return nil
}
