package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homecare-coop/backoffice/internal/config"
	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/staff"
	log "github.com/sirupsen/logrus"
)

type ClientDirectory interface {
	Get(ctx context.Context, id int) (client.Client, error)
}

type StaffDirectory interface {
	Get(ctx context.Context, id int) (staff.Staff, error)
}

// backOffice receives the operational notices. It has no address, so they only reach the log.
var backOffice = Contact{Name: "back office"}

type Notifier struct {
	channels []Channel
	clients  ClientDirectory
	staff    StaffDirectory
	location *time.Location
}

// NewNotifier enables the email and SMS channels according to cfg.
func NewNotifier(cfg config.Notifications, clients ClientDirectory, staffDir StaffDirectory, location *time.Location) *Notifier {
	channels := make([]Channel, 0, 2)
	if cfg.EmailEnabled {
		channels = append(channels, EmailChannel{})
	}
	if cfg.SmsEnabled {
		channels = append(channels, SmsChannel{})
	}
	return NewNotifierWithChannels(channels, clients, staffDir, location)
}

func NewNotifierWithChannels(channels []Channel, clients ClientDirectory, staffDir StaffDirectory, location *time.Location) *Notifier {
	return &Notifier{channels: channels, clients: clients, staff: staffDir, location: location}
}

// Notify logs the message and hands it to every enabled channel the recipient has an address for.
func (n *Notifier) Notify(ctx context.Context, message Message) error {
	log.Infof("Notification for %s: %s", message.To.Name, message.Subject)
	var errs []error
	for _, channel := range n.channels {
		err := channel.Send(ctx, message)
		if errors.Is(err, ErrNoAddress) {
			log.Debugf("no %s address for %s", channel.Name(), message.To.Name)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", channel.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers the notifier on the bus and returns a function removing it again.
func (n *Notifier) Subscribe(bus *event_bus.EventBus) func() {
	unsubscribers := []func(){
		event_bus.SubscribeTyped(bus, event_bus.AppointmentReminderDueType, n.onReminderDue),
		event_bus.SubscribeTyped(bus, event_bus.CompensationPaidType, n.onCompensationPaid),
		event_bus.SubscribeTyped(bus, event_bus.CompensationAllocatedType, n.onCompensationAllocated),
		event_bus.SubscribeTyped(bus, event_bus.DataImportCompletedType, n.onImportCompleted),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

func (n *Notifier) onReminderDue(e event_bus.EventT[event_bus.AppointmentReminderDue]) error {
	ctx := e.Context()
	due := e.Data
	start := due.Start.In(n.location).Format("02/01/2006 15:04")

	c, err := n.clients.Get(ctx, due.ClientId)
	if err != nil {
		return fmt.Errorf("reminder for appointment %s: %w", due.AppointmentId, err)
	}
	errs := []error{n.Notify(ctx, Message{
		To:      Contact{Name: c.FullName(), Email: c.Email, Phone: c.Phone},
		Subject: "Appointment reminder",
		Body:    fmt.Sprintf("Your %s appointment starts on %s.", serviceLabel(due.ServiceType), start),
	})}

	if due.StaffId != 0 {
		s, err := n.staff.Get(ctx, due.StaffId)
		if err != nil {
			return fmt.Errorf("reminder for appointment %s: %w", due.AppointmentId, err)
		}
		errs = append(errs, n.Notify(ctx, Message{
			To:      Contact{Name: s.FullName(), Email: s.Email, Phone: s.Phone},
			Subject: "Upcoming visit",
			Body:    fmt.Sprintf("Visit to %s on %s.", c.FullName(), start),
		}))
	}
	return errors.Join(errs...)
}

func (n *Notifier) onCompensationPaid(e event_bus.EventT[event_bus.CompensationPaid]) error {
	ctx := e.Context()
	s, err := n.staff.Get(ctx, e.Data.StaffId)
	if err != nil {
		return fmt.Errorf("payment notice for compensation %d: %w", e.Data.CompensationId, err)
	}
	return n.Notify(ctx, Message{
		To:      Contact{Name: s.FullName(), Email: s.Email, Phone: s.Phone},
		Subject: "Compensation paid",
		Body: fmt.Sprintf("Compensation %d of %s EUR was paid on %s.", e.Data.CompensationId,
			e.Data.Total.StringFixed(2), e.Data.PaidAt.In(n.location).Format("02/01/2006")),
	})
}

func (n *Notifier) onCompensationAllocated(e event_bus.EventT[event_bus.CompensationAllocated]) error {
	if e.Data.ClientsOwing == 0 && !e.Data.RemainingToAllocate.IsPositive() {
		return nil
	}
	return n.Notify(e.Context(), Message{
		To:      backOffice,
		Subject: "Compensation not fully covered by budgets",
		Body: fmt.Sprintf("Compensation %d: %s EUR left to allocate, %d client(s) owing.", e.Data.CompensationId,
			e.Data.RemainingToAllocate.StringFixed(2), e.Data.ClientsOwing),
	})
}

func (n *Notifier) onImportCompleted(e event_bus.EventT[event_bus.DataImportCompleted]) error {
	return n.Notify(e.Context(), Message{
		To:      backOffice,
		Subject: "Import " + e.Data.Status,
		Body: fmt.Sprintf("%s: %d of %d rows stored, %d error(s).", e.Data.Filename, e.Data.ProcessedRows,
			e.Data.TotalRows, e.Data.ErrorCount),
	})
}

func serviceLabel(serviceType string) string {
	if serviceType == "" {
		return "care"
	}
	return serviceType
}
