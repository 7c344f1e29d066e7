// Package reminders projects service reminders and vehicle renewals from
// service history and keeps their statuses current.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmanprod/fleetmada/internal/clock"
	"github.com/hmanprod/fleetmada/internal/db"
	"github.com/hmanprod/fleetmada/internal/metrics"
	"github.com/hmanprod/fleetmada/internal/models"
	log "github.com/sirupsen/logrus"
)

// ErrPartialFailure wraps the per-entity errors of a generation run that
// otherwise completed.
var ErrPartialFailure = errors.New("reminder generation finished with failures")

const (
	DefaultDaysInAdvance = 30
	recentEntriesLimit   = 5
)

// Config selects the generation passes. Use DefaultConfig and override.
type Config struct {
	GenerateFromServicePrograms    bool
	GenerateFromLastServiceEntries bool
	GenerateVehicleRenewals        bool
	DaysInAdvance                  int
	// NewVehiclesOnly is accepted for compatibility and is not applied.
	NewVehiclesOnly bool
}

// DefaultConfig enables every pass with a 30 day lookahead.
func DefaultConfig() Config {
	return Config{
		GenerateFromServicePrograms:    true,
		GenerateFromLastServiceEntries: true,
		GenerateVehicleRenewals:        true,
		DaysInAdvance:                  DefaultDaysInAdvance,
	}
}

// Pass names a generation pass.
type Pass string

const (
	PassServicePrograms Pass = "service_programs"
	PassServiceEntries  Pass = "service_entries"
	PassVehicleRenewals Pass = "vehicle_renewals"
)

// OutcomeStatus is what happened to one candidate record.
type OutcomeStatus string

const (
	OutcomeCreated OutcomeStatus = "created"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome describes one candidate reminder or renewal of a pass.
type Outcome struct {
	Pass      Pass          `json:"pass"`
	VehicleID string        `json:"vehicle_id"`
	ProgramID string        `json:"program_id,omitempty"`
	Subject   string        `json:"subject,omitempty"` // task name or renewal type
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Err       error         `json:"-"`
}

// PassResult is the detailed result of a single pass.
type PassResult struct {
	Pass     Pass
	Created  int
	Outcomes []Outcome
	errs     []error
}

// Failures returns the outcomes that failed.
func (r PassResult) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			out = append(out, o)
		}
	}
	return out
}

// Err returns nil when no entity failed, else an error wrapping
// ErrPartialFailure and every per-entity error.
func (r PassResult) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", r.Pass, ErrPartialFailure, errors.Join(r.errs...))
}

// Result aggregates a GenerateAllReminders run.
type Result struct {
	RemindersGenerated int       `json:"reminders_generated"`
	RenewalsGenerated  int       `json:"renewals_generated"`
	Total              int       `json:"total"`
	Outcomes           []Outcome `json:"outcomes,omitempty"`
}

// Store is the persistence surface the generator needs.
type Store interface {
	db.VehicleCollection
	db.ServiceCollection
	db.ReminderCollection
	db.RenewalCollection
}

// Generator creates reminders and renewals. It holds no state between runs.
type Generator struct {
	store Store
	clock clock.Clock
	log   log.FieldLogger
}

// NewGenerator creates a generator. A nil clock uses the system clock and a
// nil logger the logrus standard logger.
func NewGenerator(store Store, clk clock.Clock, logger log.FieldLogger) *Generator {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Generator{store: store, clock: clk, log: logger.WithField("component", "reminder_generator")}
}

// GenerateAllReminders runs the enabled passes in order. A pass that fails
// does not stop the following ones; the returned error joins every pass
// error.
func (g *Generator) GenerateAllReminders(ctx context.Context, cfg Config) (Result, error) {
	if cfg.DaysInAdvance <= 0 {
		cfg.DaysInAdvance = DefaultDaysInAdvance
	}
	if cfg.NewVehiclesOnly {
		g.log.Warn("new_vehicles_only is set but not applied by generation")
	}
	g.log.WithFields(log.Fields{
		"from_programs":        cfg.GenerateFromServicePrograms,
		"from_service_entries": cfg.GenerateFromLastServiceEntries,
		"vehicle_renewals":     cfg.GenerateVehicleRenewals,
		"days_in_advance":      cfg.DaysInAdvance,
	}).Info("Starting reminder generation")

	var (
		result Result
		errs   []error
	)
	collect := func(r PassResult, err error) int {
		result.Outcomes = append(result.Outcomes, r.Outcomes...)
		if err != nil {
			errs = append(errs, err)
		}
		return r.Created
	}

	if cfg.GenerateFromServicePrograms {
		result.RemindersGenerated += collect(g.GenerateFromServicePrograms(ctx))
	}
	if cfg.GenerateFromLastServiceEntries {
		result.RemindersGenerated += collect(g.GenerateFromLastServiceEntries(ctx, cfg.DaysInAdvance))
	}
	if cfg.GenerateVehicleRenewals {
		result.RenewalsGenerated += collect(g.GenerateVehicleRenewals(ctx, cfg.DaysInAdvance))
	}
	result.Total = result.RemindersGenerated + result.RenewalsGenerated

	entry := g.log.WithFields(log.Fields{
		"reminders_generated": result.RemindersGenerated,
		"renewals_generated":  result.RenewalsGenerated,
	})
	if len(errs) > 0 {
		err := errors.Join(errs...)
		entry.WithError(err).Error("Reminder generation finished with errors")
		return result, err
	}
	entry.Info("Reminder generation completed")
	return result, nil
}

// GenerateFromServicePrograms creates one reminder per program task for each
// vehicle of each active program, due one program interval after the
// vehicle's last service. A vehicle that already has any open task-linked
// reminder is skipped as a whole. No lookahead applies to this pass.
func (g *Generator) GenerateFromServicePrograms(ctx context.Context) (PassResult, error) {
	p := g.newPass(PassServicePrograms)
	programs, err := g.store.FindActiveServicePrograms(ctx)
	if err != nil {
		return p.result, fmt.Errorf("list active service programs: %w", err)
	}
	now := g.clock.Now()

	for _, program := range programs {
		interval := ExtractIntervalMonths(program.Frequency)
		for _, vehicleID := range program.VehicleIDs {
			if err := ctx.Err(); err != nil {
				return p.result, err
			}
			base := Outcome{VehicleID: vehicleID, ProgramID: program.ID}
			if interval <= 0 {
				p.skip(base, fmt.Sprintf("program frequency %q has no interval", program.Frequency))
				continue
			}

			open, err := g.store.HasOpenTaskReminder(ctx, vehicleID)
			if err != nil {
				p.fail(base, fmt.Errorf("check open reminders of vehicle %s: %w", vehicleID, err))
				continue
			}
			if open {
				p.skip(base, "vehicle already has an open task reminder")
				continue
			}

			entries, err := g.store.FindRecentServiceEntries(ctx, vehicleID, 1)
			if err != nil {
				p.fail(base, fmt.Errorf("load last service entry of vehicle %s: %w", vehicleID, err))
				continue
			}
			if len(entries) == 0 {
				p.skip(base, "no service entry")
				continue
			}
			last := entries[0]
			nextDue := AddMonths(last.Date, interval)

			for _, task := range program.Tasks {
				o := base
				o.Subject = task.Name
				if task.ID == "" || strings.TrimSpace(task.Name) == "" {
					p.skip(o, "program task without id or name")
					continue
				}
				p.insertReminder(ctx, g.store, o, newReminder(vehicleID, task, last, interval, nextDue, now))
			}
		}
	}
	return p.finish()
}

// GenerateFromLastServiceEntries looks at the five most recent service
// entries of every vehicle. Each (vehicle, task) pair is projected once from
// the most recent entry that performed it, and a reminder is created when
// no open one exists and the due date falls within daysInAdvance days.
func (g *Generator) GenerateFromLastServiceEntries(ctx context.Context, daysInAdvance int) (PassResult, error) {
	p := g.newPass(PassServiceEntries)
	vehicles, err := g.store.FindVehicles(ctx)
	if err != nil {
		return p.result, fmt.Errorf("list vehicles: %w", err)
	}
	now := g.clock.Now()
	cutoff := lookahead(now, daysInAdvance)

	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			return p.result, err
		}
		base := Outcome{VehicleID: vehicle.ID}
		entries, err := g.store.FindRecentServiceEntries(ctx, vehicle.ID, recentEntriesLimit)
		if err != nil {
			p.fail(base, fmt.Errorf("load service entries of vehicle %s: %w", vehicle.ID, err))
			continue
		}

		seen := make(map[string]bool)
		for _, entry := range entries {
			for _, task := range entry.Tasks {
				o := base
				o.Subject = task.Name
				if task.ID == "" || strings.TrimSpace(task.Name) == "" {
					p.skip(o, "service entry task without id or name")
					continue
				}
				if seen[task.ID] {
					continue
				}
				seen[task.ID] = true

				open, err := g.store.HasOpenReminderForTask(ctx, vehicle.ID, task.ID)
				if err != nil {
					p.fail(o, fmt.Errorf("check open reminder of vehicle %s task %s: %w", vehicle.ID, task.ID, err))
					continue
				}
				if open {
					p.skip(o, "open reminder exists for task")
					continue
				}

				interval := DefaultIntervalForTask(task.Name)
				if interval <= 0 {
					p.skip(o, "task has no interval")
					continue
				}
				nextDue := AddMonths(entry.Date, interval)
				if nextDue.After(cutoff) {
					p.skip(o, "due date beyond lookahead window")
					continue
				}
				p.insertReminder(ctx, g.store, o, newReminder(vehicle.ID, task, entry, interval, nextDue, now))
			}
		}
	}
	return p.finish()
}

type renewalRule struct {
	typ        models.RenewalType
	minAge     int
	due        time.Time
	provider   string
	ageMessage string
}

func renewalRules(now time.Time) []renewalRule {
	loc := now.Location()
	return []renewalRule{
		{
			typ:        models.RenewalRegistration,
			due:        time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, loc),
			provider:   "Système d'immatriculation",
			ageMessage: "vehicle model year is in the future",
		},
		{
			typ:        models.RenewalInsurance,
			due:        time.Date(now.Year(), now.Month()+12, 1, 0, 0, 0, 0, loc),
			provider:   "Compagnie d'assurance",
			ageMessage: "vehicle model year is in the future",
		},
		{
			typ:        models.RenewalInspection,
			minAge:     4,
			due:        time.Date(now.Year(), now.Month()+6, 1, 0, 0, 0, 0, loc),
			provider:   "Centre de contrôle technique",
			ageMessage: "vehicle younger than 4 years",
		},
	}
}

// GenerateVehicleRenewals applies the registration, insurance and
// inspection rules to every vehicle. Each creates a DUE renewal when the
// vehicle is old enough, has no open renewal of that type and the due date
// is within daysInAdvance days.
func (g *Generator) GenerateVehicleRenewals(ctx context.Context, daysInAdvance int) (PassResult, error) {
	p := g.newPass(PassVehicleRenewals)
	vehicles, err := g.store.FindVehicles(ctx)
	if err != nil {
		return p.result, fmt.Errorf("list vehicles: %w", err)
	}
	now := g.clock.Now()
	cutoff := lookahead(now, daysInAdvance)
	rules := renewalRules(now)

	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			return p.result, err
		}
		age := vehicle.Age(now)
		for _, rule := range rules {
			o := Outcome{VehicleID: vehicle.ID, Subject: string(rule.typ)}
			if age < rule.minAge {
				p.skip(o, rule.ageMessage)
				continue
			}
			open, err := g.store.HasOpenRenewal(ctx, vehicle.ID, rule.typ)
			if err != nil {
				p.fail(o, fmt.Errorf("check open %s renewal of vehicle %s: %w", rule.typ, vehicle.ID, err))
				continue
			}
			if open {
				p.skip(o, "open renewal exists for type")
				continue
			}
			if rule.due.After(cutoff) {
				p.skip(o, "due date beyond lookahead window")
				continue
			}

			renewal := &models.VehicleRenewal{
				VehicleID: vehicle.ID,
				Type:      rule.typ,
				Status:    models.RenewalDue,
				DueDate:   rule.due,
				Provider:  rule.provider,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err = g.store.InsertRenewal(ctx, renewal)
			switch {
			case errors.Is(err, db.ErrDuplicate):
				p.skip(o, "open renewal exists for type")
			case err != nil:
				p.fail(o, fmt.Errorf("create %s renewal for vehicle %s: %w", rule.typ, vehicle.ID, err))
			default:
				p.create(o)
			}
		}
	}
	return p.finish()
}

func lookahead(now time.Time, days int) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}

func newReminder(vehicleID string, task models.ServiceTask, entry models.ServiceEntry, interval int, nextDue, now time.Time) *models.ServiceReminder {
	lastDate := entry.Date
	return &models.ServiceReminder{
		VehicleID:        vehicleID,
		ServiceTaskID:    task.ID,
		Task:             task.Name,
		Status:           models.ReminderActive,
		Kind:             models.ReminderKindDate,
		NextDue:          &nextDue,
		IntervalMonths:   interval,
		LastServiceDate:  &lastDate,
		LastServiceMeter: entry.Meter,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// passRun accumulates the outcomes of one pass.
type passRun struct {
	result PassResult
	log    log.FieldLogger
}

func (g *Generator) newPass(name Pass) *passRun {
	return &passRun{
		result: PassResult{Pass: name},
		log:    g.log.WithField("pass", name),
	}
}

func (p *passRun) record(o Outcome) {
	o.Pass = p.result.Pass
	p.result.Outcomes = append(p.result.Outcomes, o)
	metrics.GenerationOutcomes.WithLabelValues(string(o.Pass), string(o.Status)).Inc()
}

func (p *passRun) create(o Outcome) {
	o.Status = OutcomeCreated
	p.result.Created++
	p.record(o)
	p.log.WithFields(log.Fields{"vehicle_id": o.VehicleID, "subject": o.Subject}).Debug("Created")
}

func (p *passRun) skip(o Outcome, reason string) {
	o.Status = OutcomeSkipped
	o.Reason = reason
	p.record(o)
	p.log.WithFields(log.Fields{"vehicle_id": o.VehicleID, "subject": o.Subject, "reason": reason}).Debug("Skipped")
}

func (p *passRun) fail(o Outcome, err error) {
	o.Status = OutcomeFailed
	o.Err = err
	o.Reason = err.Error()
	p.result.errs = append(p.result.errs, err)
	p.record(o)
	p.log.WithFields(log.Fields{"vehicle_id": o.VehicleID, "subject": o.Subject}).WithError(err).Error("Failed")
}

func (p *passRun) insertReminder(ctx context.Context, store db.ReminderCollection, o Outcome, reminder *models.ServiceReminder) {
	err := store.InsertReminder(ctx, reminder)
	switch {
	case errors.Is(err, db.ErrDuplicate):
		p.skip(o, "open reminder exists for task")
	case err != nil:
		p.fail(o, fmt.Errorf("create reminder %q for vehicle %s: %w", reminder.Task, reminder.VehicleID, err))
	default:
		p.create(o)
	}
}

func (p *passRun) finish() (PassResult, error) {
	p.log.WithFields(log.Fields{
		"created": p.result.Created,
		"failed":  len(p.result.errs),
	}).Info("Generation pass completed")
	return p.result, p.result.Err()
}
