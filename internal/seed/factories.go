package seed

import (
	"fmt"
	"strings"
	"time"

	"mundotango/internal/models"
	"mundotango/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type city struct {
	Name, Country string
	Lat, Lng      float64
}

var (
	tangoCities = []city{
		{"Buenos Aires", "Argentina", -34.6037, -58.3816},
		{"Montevideo", "Uruguay", -34.9011, -56.1645},
		{"Berlin", "Germany", 52.52, 13.405},
		{"Paris", "France", 48.8566, 2.3522},
		{"Istanbul", "Turkey", 41.0082, 28.9784},
		{"New York", "United States", 40.7128, -74.006},
		{"Tokyo", "Japan", 35.6762, 139.6503},
		{"Lisbon", "Portugal", 38.7223, -9.1393},
		{"Amsterdam", "Netherlands", 52.3676, 4.9041},
		{"Krakow", "Poland", 50.0647, 19.945},
	}

	tangoRoles    = []string{"leader", "follower", "teacher", "organizer", "dj", "musician", "photographer"}
	eventTypes    = []string{"milonga", "practica", "festival", "workshop", "class", "marathon", "encuentro"}
	groupTypes    = []string{"city", "practica", "school", "orchestra"}
	platforms     = []string{"zoom", "youtube", "instagram", "patreon"}
	orchestras    = []string{"Di Sarli", "D'Arienzo", "Pugliese", "Troilo", "Biagi", "Calo", "Canaro", "Tanturi"}
	postOpenings  = []string{"Last night at", "Can't stop thinking about", "First time dancing in", "Looking for a partner in", "Great tandas at"}
	visibilities  = []string{models.VisibilityPublic, models.VisibilityPublic, models.VisibilityFriends}
	friendOutcome = []string{models.FriendStatusAccepted, models.FriendStatusAccepted, models.FriendStatusPending}
)

// Factory builds and persists generated rows. A fixed faker seed makes runs
// reproducible, which tests rely on.
type Factory struct {
	db       *gorm.DB
	fake     *gofakeit.Faker
	password string
	now      time.Time
}

func NewFactory(db *gorm.DB) *Factory {
	return NewFactoryWithSeed(db, time.Now().UnixNano())
}

func NewFactoryWithSeed(db *gorm.DB, seed int64) *Factory {
	return &Factory{db: db, fake: gofakeit.New(seed), now: time.Now().UTC()}
}

func (f *Factory) hashedPassword() (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	f.password = string(hash)
	return f.password, nil
}

func (f *Factory) city() city {
	return tangoCities[f.fake.Number(0, len(tangoCities)-1)]
}

func (f *Factory) pick(list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	shuffled := append([]string(nil), list...)
	f.fake.ShuffleStrings(shuffled)
	return shuffled[:n]
}

// Admin creates (or returns) the admin account admin@mundotango.local.
func (f *Factory) Admin() (*models.User, error) {
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}
	admin := models.User{
		Name:     "Mundo Tango Admin",
		Username: "admin.tango",
		Email:    "admin@mundotango.local",
		Password: hash,
		IsAdmin:  true,
		IsActive: true,
	}
	if err := f.db.Where(models.User{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (f *Factory) User(overrides ...func(*models.User)) *models.User {
	first, last := f.fake.FirstName(), f.fake.LastName()
	c := f.city()
	username := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, f.fake.Number(10, 9999)))
	u := &models.User{
		Name:       first + " " + last,
		Username:   username,
		Email:      username + "@example.com",
		Bio:        f.fake.Sentence(12),
		City:       c.Name,
		Country:    c.Country,
		ImageURL:   fmt.Sprintf("https://i.pravatar.cc/300?u=%s", f.fake.UUID()),
		TangoRoles: strings.Join(f.pick(tangoRoles, f.fake.Number(1, 3)), ","),
		IsActive:   true,
	}
	for _, o := range overrides {
		o(u)
	}
	return u
}

// Users creates n members sharing DefaultPassword.
func (f *Factory) Users(n int) ([]models.User, error) {
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, n)
	seen := make(map[string]bool, n)
	for len(users) < n {
		u := f.User(func(u *models.User) { u.Password = hash })
		if seen[u.Username] {
			continue
		}
		seen[u.Username] = true
		users = append(users, *u)
	}
	if n == 0 {
		return users, nil
	}
	if err := f.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Friendships links each user with up to three neighbours. A pair is only
// ever requested once, in one direction.
func (f *Factory) Friendships(users []models.User) error {
	if len(users) < 2 {
		return nil
	}
	seen := map[[2]uint]bool{}
	var rows []models.Friend
	for i, u := range users {
		k := f.fake.Number(1, 3)
		for d := 1; d <= k; d++ {
			other := users[(i+d)%len(users)]
			if other.ID == u.ID {
				continue
			}
			key := [2]uint{min(u.ID, other.ID), max(u.ID, other.ID)}
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, models.Friend{
				UserID:   u.ID,
				FriendID: other.ID,
				Status:   friendOutcome[f.fake.Number(0, len(friendOutcome)-1)],
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return f.db.CreateInBatches(&rows, 200).Error
}

// Groups creates n groups, each owned by a random user who joins as admin.
func (f *Factory) Groups(users []models.User, n int) ([]models.Group, error) {
	if len(users) == 0 || n == 0 {
		return nil, nil
	}
	groups := make([]models.Group, 0, n)
	for i := 0; i < n; i++ {
		owner := users[f.fake.Number(0, len(users)-1)]
		c := f.city()
		gt := groupTypes[f.fake.Number(0, len(groupTypes)-1)]
		name := fmt.Sprintf("Tango %s %s", c.Name, capitalize(gt))
		groups = append(groups, models.Group{
			UserID:      owner.ID,
			Name:        name,
			Slug:        fmt.Sprintf("%s-%d", validation.Slugify(name), i+1),
			Description: f.fake.Paragraph(1, 3, 10, " "),
			GroupType:   gt,
			City:        c.Name,
			Country:     c.Country,
			Privacy:     "public",
		})
	}
	if err := f.db.Create(&groups).Error; err != nil {
		return nil, err
	}

	var members []models.GroupMember
	for _, g := range groups {
		members = append(members, models.GroupMember{GroupID: g.ID, UserID: g.UserID, Role: "admin", Status: "active"})
		for _, u := range users {
			if u.ID != g.UserID && f.fake.Number(1, 4) == 1 {
				members = append(members, models.GroupMember{GroupID: g.ID, UserID: u.ID, Role: "member", Status: "active"})
			}
		}
	}
	if err := f.db.CreateInBatches(&members, 200).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Events creates n upcoming events with RSVPs, some attached to groups.
func (f *Factory) Events(users []models.User, groups []models.Group, n int) ([]models.Event, error) {
	if len(users) == 0 || n == 0 {
		return nil, nil
	}
	events := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		owner := users[f.fake.Number(0, len(users)-1)]
		c := f.city()
		et := eventTypes[f.fake.Number(0, len(eventTypes)-1)]
		start := f.now.Add(time.Duration(f.fake.Number(1, 90*24)) * time.Hour).Truncate(time.Hour)
		end := start.Add(4 * time.Hour)
		if et == "festival" || et == "marathon" || et == "encuentro" {
			end = start.Add(time.Duration(f.fake.Number(2, 4)) * 24 * time.Hour)
		}
		lat, lng := c.Lat, c.Lng
		e := models.Event{
			UserID:       owner.ID,
			Title:        fmt.Sprintf("%s %s", capitalize(et), orchestras[f.fake.Number(0, len(orchestras)-1)]),
			Description:  f.fake.Paragraph(2, 3, 12, "\n"),
			EventType:    et,
			StartDate:    &start,
			EndDate:      &end,
			Venue:        f.fake.Company(),
			City:         c.Name,
			Country:      c.Country,
			Latitude:     &lat,
			Longitude:    &lng,
			MaxAttendees: f.fake.Number(20, 400),
			Visibility:   models.VisibilityPublic,
		}
		if len(groups) > 0 && f.fake.Bool() {
			gid := groups[f.fake.Number(0, len(groups)-1)].ID
			e.GroupID = &gid
		}
		events = append(events, e)
	}
	if err := f.db.Create(&events).Error; err != nil {
		return nil, err
	}

	var rsvps []models.EventParticipant
	for _, e := range events {
		for _, u := range users {
			switch f.fake.Number(1, 6) {
			case 1:
				rsvps = append(rsvps, models.EventParticipant{EventID: e.ID, UserID: u.ID, Status: "going"})
			case 2:
				rsvps = append(rsvps, models.EventParticipant{EventID: e.ID, UserID: u.ID, Status: "interested"})
			}
		}
	}
	if len(rsvps) == 0 {
		return events, nil
	}
	return events, f.db.CreateInBatches(&rsvps, 200).Error
}

// Posts creates n feed posts with a few comments each, spread over the last
// month.
func (f *Factory) Posts(users []models.User, groups []models.Group, events []models.Event, n int) ([]models.Post, error) {
	if len(users) == 0 || n == 0 {
		return nil, nil
	}
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[f.fake.Number(0, len(users)-1)]
		c := f.city()
		p := models.Post{
			UserID:     author.ID,
			Content:    fmt.Sprintf("%s %s. %s", postOpenings[f.fake.Number(0, len(postOpenings)-1)], c.Name, f.fake.Sentence(14)),
			Visibility: visibilities[f.fake.Number(0, len(visibilities)-1)],
			Location:   c.Name,
			Hashtags:   strings.Join([]string{"tango", strings.ToLower(strings.ReplaceAll(c.Name, " ", ""))}, ","),
		}
		p.CreatedAt = f.now.Add(-time.Duration(f.fake.Number(0, 30*24*60)) * time.Minute)
		switch f.fake.Number(1, 6) {
		case 1:
			p.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.fake.UUID())
		case 2:
			if len(groups) > 0 {
				gid := groups[f.fake.Number(0, len(groups)-1)].ID
				p.GroupID = &gid
			}
		case 3:
			if len(events) > 0 {
				eid := events[f.fake.Number(0, len(events)-1)].ID
				p.EventID = &eid
			}
		}
		posts = append(posts, p)
	}
	if err := f.db.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	for _, p := range posts {
		for c := f.fake.Number(0, 3); c > 0; c-- {
			comments = append(comments, models.Comment{
				PostID:  p.ID,
				UserID:  users[f.fake.Number(0, len(users)-1)].ID,
				Content: f.fake.Sentence(8),
			})
		}
	}
	if len(comments) == 0 {
		return posts, nil
	}
	return posts, f.db.CreateInBatches(&comments, 200).Error
}

// Experiences gives every user a dance section; users with the teacher or
// organizer role get those sections too. Some dance sections leave the social
// cities column NULL, as older profiles do.
func (f *Factory) Experiences(users []models.User) error {
	var (
		dance     []models.DanceExperience
		teachers  []models.TeacherExperience
		organizer []models.OrganizerExperience
	)
	for _, u := range users {
		cities := strings.Join(f.cityNames(f.fake.Number(1, 3)), ",")
		d := models.DanceExperience{
			UserID:                 u.ID,
			StartedYear:            f.fake.Number(1990, f.now.Year()),
			FavouriteDancingCities: cities,
			LeaderLevel:            f.fake.Number(0, 10),
			FollowerLevel:          f.fake.Number(0, 10),
		}
		if f.fake.Number(1, 4) > 1 {
			social := strings.Join(f.cityNames(f.fake.Number(1, 4)), ",")
			d.SocialDancingCities = &social
		}
		dance = append(dance, d)

		roles := "," + u.TangoRoles + ","
		if strings.Contains(roles, ",teacher,") {
			teachers = append(teachers, models.TeacherExperience{
				UserID:          u.ID,
				PartnerName:     f.fake.Name(),
				Cities:          cities,
				OnlinePlatforms: strings.Join(f.pick(platforms, f.fake.Number(0, 2)), ","),
				TeachingReason:  f.fake.Sentence(10),
			})
		}
		if strings.Contains(roles, ",organizer,") {
			types := strings.Join(f.pick(eventTypes, f.fake.Number(1, 3)), ",")
			organizer = append(organizer, models.OrganizerExperience{
				UserID:           u.ID,
				HostedEvents:     f.fake.Number(1, 200),
				HostedEventTypes: &types,
				Cities:           cities,
			})
		}
	}
	for _, batch := range []any{&dance, &teachers, &organizer} {
		if err := f.createIfAny(batch); err != nil {
			return err
		}
	}
	return nil
}

func (f *Factory) createIfAny(rows any) error {
	var n int
	switch v := rows.(type) {
	case *[]models.DanceExperience:
		n = len(*v)
	case *[]models.TeacherExperience:
		n = len(*v)
	case *[]models.OrganizerExperience:
		n = len(*v)
	}
	if n == 0 {
		return nil
	}
	return f.db.CreateInBatches(rows, 200).Error
}

func (f *Factory) cityNames(n int) []string {
	names := make([]string, len(tangoCities))
	for i, c := range tangoCities {
		names[i] = c.Name
	}
	return f.pick(names, n)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
