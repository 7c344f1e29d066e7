package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/hmanprod/fleetmada/internal/config"
	"github.com/hmanprod/fleetmada/internal/db"
	"github.com/hmanprod/fleetmada/internal/models"
	log "github.com/sirupsen/logrus"
)

var makes = map[string][]string{
	"Toyota":  {"Hilux", "Land Cruiser", "Corolla"},
	"Ford":    {"Ranger", "Transit", "F-150"},
	"Renault": {"Master", "Kangoo", "Duster"},
	"Nissan":  {"Navara", "Leaf", "NV200"},
}

var makeNames = []string{"Toyota", "Ford", "Renault", "Nissan"}

// catalogue of service tasks, with stable IDs so that reminders line up
// across entries.
var catalogue = []models.ServiceTask{
	{ID: "task-oil", Name: "Vidange moteur"},
	{ID: "task-oil-filter", Name: "Remplacement filtre à huile"},
	{ID: "task-tires", Name: "Rotation pneus"},
	{ID: "task-brakes", Name: "Plaquettes de frein"},
	{ID: "task-battery", Name: "Contrôle batterie"},
	{ID: "task-belt", Name: "Courroie de distribution"},
}

var vendors = []string{"Garage Central", "Auto Service Plus", "Atelier Nord"}

// SeedStore is what the seeder writes to.
type SeedStore interface {
	db.VehicleCollection
	db.ServiceCollection
}

type seeder struct {
	store  SeedStore
	rng    *rand.Rand
	now    time.Time
	userID string
}

type seedStats struct {
	Vehicles int
	Entries  int
	Programs int
}

func (s *seeder) vehicle(i int) *models.Vehicle {
	mk := makeNames[s.rng.Intn(len(makeNames))]
	mdl := makes[mk][s.rng.Intn(len(makes[mk]))]
	return &models.Vehicle{
		UserID:    s.userID,
		Name:      fmt.Sprintf("%s %s #%d", mk, mdl, i+1),
		Make:      mk,
		Model:     mdl,
		Year:      s.now.Year() - s.rng.Intn(10), // up to 9 years old
		Status:    "active",
		CreatedAt: s.now,
	}
}

// history returns one to four past service entries, oldest first, with an
// increasing odometer.
func (s *seeder) history(vehicleID string) []models.ServiceEntry {
	count := 1 + s.rng.Intn(4)
	meter := 5000 + s.rng.Float64()*20000
	date := s.now.AddDate(0, -18, 0)
	entries := make([]models.ServiceEntry, 0, count)
	for i := 0; i < count; i++ {
		date = date.AddDate(0, 0, 30+s.rng.Intn(120))
		if date.After(s.now) {
			break
		}
		meter += 2000 + s.rng.Float64()*8000
		m := meter
		tasks := []models.ServiceTask{catalogue[0]}
		if extra := catalogue[1+s.rng.Intn(len(catalogue)-1)]; s.rng.Intn(2) == 0 {
			tasks = append(tasks, extra)
		}
		entries = append(entries, models.ServiceEntry{
			VehicleID: vehicleID,
			Date:      date,
			Meter:     &m,
			Tasks:     tasks,
			Vendor:    vendors[s.rng.Intn(len(vendors))],
			CreatedAt: s.now,
		})
	}
	return entries
}

func (s *seeder) seed(ctx context.Context, n int) (seedStats, error) {
	var stats seedStats
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := s.vehicle(i)
		if err := s.store.InsertVehicle(ctx, v); err != nil {
			return stats, fmt.Errorf("insert vehicle: %w", err)
		}
		ids = append(ids, v.ID)
		stats.Vehicles++

		for _, entry := range s.history(v.ID) {
			e := entry
			if err := s.store.InsertServiceEntry(ctx, &e); err != nil {
				return stats, fmt.Errorf("insert service entry for %s: %w", v.ID, err)
			}
			stats.Entries++
		}
		log.WithFields(log.Fields{
			"vehicle_id": v.ID,
			"make":       v.Make,
			"model":      v.Model,
			"year":       v.Year,
		}).Info("Seeded vehicle")
	}

	program := &models.ServiceProgram{
		Name:       "Entretien trimestriel",
		Frequency:  "3 months",
		Active:     true,
		VehicleIDs: ids,
		Tasks:      []models.ServiceTask{catalogue[2], catalogue[4]},
		CreatedAt:  s.now,
	}
	if err := s.store.InsertServiceProgram(ctx, program); err != nil {
		return stats, fmt.Errorf("insert service program: %w", err)
	}
	stats.Programs++
	return stats, nil
}

func main() {
	cfg := config.Load()
	cfg.ConfigureLogger(log.StandardLogger())

	fleetSize := 10
	if val := os.Getenv("SEED_VEHICLES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			fleetSize = n
		}
	}
	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		userID = "demo-user"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := db.NewMongoStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	s := &seeder{
		store:  store,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now().UTC(),
		userID: userID,
	}
	log.WithFields(log.Fields{"fleet_size": fleetSize, "database": cfg.MongoDB}).Info("Seeding fleet")
	stats, err := s.seed(ctx, fleetSize)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.WithFields(log.Fields{
		"vehicles": stats.Vehicles,
		"entries":  stats.Entries,
		"programs": stats.Programs,
	}).Info("Seeding completed")
}
