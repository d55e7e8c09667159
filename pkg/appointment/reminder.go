package appointment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type UpcomingReader interface {
	StartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
}

// Reminder periodically announces appointments starting lead from now.
// A run covers [end of the previous window, now+lead+interval), so late or early firings
// neither skip nor repeat appointments. The first run starts its window at now+lead.
type Reminder struct {
	appointments UpcomingReader
	bus          *event_bus.EventBus
	clock        utils.Clock
	lead         time.Duration
	interval     time.Duration
	cron         *cron.Cron

	mu        sync.Mutex
	windowEnd time.Time
}

func NewReminder(appointments UpcomingReader, bus *event_bus.EventBus, lead, interval time.Duration) *Reminder {
	return &Reminder{
		appointments: appointments,
		bus:          bus,
		clock:        &utils.SystemClock{},
		lead:         lead,
		interval:     interval,
	}
}

// Start schedules Run every interval on a cron runner.
func (r *Reminder) Start() error {
	if r.interval < time.Second {
		return errors.New("reminder interval must be at least one second")
	}
	r.cron = cron.New(cron.WithLogger(cron.PrintfLogger(log.StandardLogger())))
	r.cron.Schedule(cron.Every(r.interval), cron.FuncJob(func() {
		if _, err := r.Run(context.Background()); err != nil {
			log.Errorf("appointment reminder run failed: %v", err)
		}
	}))
	r.cron.Start()
	log.Infof("Appointment reminders scheduled every %s, %s ahead", r.interval, r.lead)
	return nil
}

// Stop halts the schedule. The returned context is done once a running job has finished.
func (r *Reminder) Stop() context.Context {
	if r.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.cron.Stop()
}

// Run publishes a reminder for every appointment in the current window and returns how many were sent.
// A failed read leaves the window open for the next run.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, to := r.window()
	if !from.Before(to) {
		return 0, nil
	}
	upcoming, err := r.appointments.StartingBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}
	r.windowEnd = to

	sent := 0
	for _, a := range upcoming {
		due := event_bus.AppointmentReminderDue{
			AppointmentId: a.Id,
			ClientId:      a.ClientId,
			Start:         a.Start,
			ServiceType:   a.ServiceType,
		}
		if a.StaffId != nil {
			due.StaffId = *a.StaffId
		}
		if err := r.bus.Publish(event_bus.NewEvent(ctx, event_bus.AppointmentReminderDueType, due)); err != nil {
			log.Warnf("reminder for appointment %s not delivered: %v", a.Id, err)
			continue
		}
		sent++
	}
	log.Debugf("Appointment reminders for [%s, %s): %d of %d sent", from.Format(time.RFC3339), to.Format(time.RFC3339),
		sent, len(upcoming))
	return sent, nil
}

// window continues from the previous window end. Appointments that already started are not announced.
func (r *Reminder) window() (time.Time, time.Time) {
	now := r.clock.Now()
	to := now.Add(r.lead + r.interval)
	if r.windowEnd.IsZero() {
		return now.Add(r.lead), to
	}
	from := r.windowEnd
	if from.Before(now) {
		from = now
	}
	return from, to
}
