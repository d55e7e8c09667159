package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homecare-coop/backoffice/internal/config"
	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	name string
	// needs selects the address the channel delivers to
	needs func(Contact) string
	fail  error
	sent  []Message
}

func (c *recordingChannel) Name() string {
	return c.name
}

func (c *recordingChannel) Send(ctx context.Context, message Message) error {
	if c.needs(message.To) == "" {
		return ErrNoAddress
	}
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, message)
	return nil
}

type fixture struct {
	bus      *event_bus.EventBus
	email    *recordingChannel
	sms      *recordingChannel
	clientId int
	staffId  int
}

func setup(t *testing.T) *fixture {
	ctx := context.Background()
	clients := client.NewService(client.NewRepositoryStub())
	staffService := staff.NewService(staff.NewRepositoryStub())
	c, err := clients.Create(ctx, client.Client{FirstName: "Maria", LastName: "Rossi", Email: "maria@example.com"})
	require.NoError(t, err)
	s, err := staffService.Create(ctx, staff.Staff{FirstName: "Luca", LastName: "Bianchi", Phone: "+39 333 1234567"})
	require.NoError(t, err)

	f := &fixture{
		bus:      event_bus.NewEventBus(),
		email:    &recordingChannel{name: "email", needs: func(c Contact) string { return c.Email }},
		sms:      &recordingChannel{name: "sms", needs: func(c Contact) string { return c.Phone }},
		clientId: c.Id,
		staffId:  s.Id,
	}
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	notifier := NewNotifierWithChannels([]Channel{f.email, f.sms}, clients, staffService, rome)
	t.Cleanup(notifier.Subscribe(f.bus))
	return f
}

func TestNotifier_ReminderReachesClientAndStaff(t *testing.T) {
	f := setup(t)

	err := f.bus.Publish(event_bus.NewEvent(context.Background(), event_bus.AppointmentReminderDueType,
		event_bus.AppointmentReminderDue{
			AppointmentId: "a-1",
			ClientId:      f.clientId,
			StaffId:       f.staffId,
			Start:         time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
			ServiceType:   "SAD",
		}))
	require.NoError(t, err)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "maria@example.com", f.email.sent[0].To.Email)
	assert.Equal(t, "Your SAD appointment starts on 05/03/2024 09:00.", f.email.sent[0].Body)
	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "Luca Bianchi", f.sms.sent[0].To.Name)
	assert.Equal(t, "Visit to Maria Rossi on 05/03/2024 09:00.", f.sms.sent[0].Body)
}

func TestNotifier_ReminderForUnknownClient(t *testing.T) {
	f := setup(t)

	err := f.bus.Publish(event_bus.NewEvent(context.Background(), event_bus.AppointmentReminderDueType,
		event_bus.AppointmentReminderDue{AppointmentId: "a-2", ClientId: 999}))
	assert.ErrorIs(t, err, client.ErrClientNotFound)
}

func TestNotifier_CompensationPaid(t *testing.T) {
	f := setup(t)

	err := f.bus.Publish(event_bus.NewEvent(context.Background(), event_bus.CompensationPaidType,
		event_bus.CompensationPaid{
			CompensationId: 12,
			StaffId:        f.staffId,
			Total:          decimal.RequireFromString("290.75"),
			PaidAt:         time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC),
		}))
	require.NoError(t, err)

	assert.Empty(t, f.email.sent)
	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "Compensation 12 of 290.75 EUR was paid on 01/05/2024.", f.sms.sent[0].Body)
}

func TestNotifier_BackOfficeNoticesOnlyReachTheLog(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.bus.Publish(event_bus.NewEvent(ctx, event_bus.CompensationAllocatedType,
		event_bus.CompensationAllocated{CompensationId: 3, RemainingToAllocate: decimal.RequireFromString("100"), ClientsOwing: 1})))
	require.NoError(t, f.bus.Publish(event_bus.NewEvent(ctx, event_bus.DataImportCompletedType,
		event_bus.DataImportCompleted{Filename: "marzo.xlsx", Status: "completed", TotalRows: 3, ProcessedRows: 3})))

	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.sms.sent)
}

func TestNotifier_ChannelFailure(t *testing.T) {
	f := setup(t)
	f.sms.fail = errors.New("gateway timeout")

	err := f.bus.Publish(event_bus.NewEvent(context.Background(), event_bus.CompensationPaidType,
		event_bus.CompensationPaid{CompensationId: 1, StaffId: f.staffId, Total: decimal.Zero}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms: gateway timeout")
}

func TestNewNotifier_ChannelsFollowFlags(t *testing.T) {
	none := NewNotifier(config.Notifications{}, nil, nil, time.UTC)
	assert.Empty(t, none.channels)

	both := NewNotifier(config.Notifications{EmailEnabled: true, SmsEnabled: true}, nil, nil, time.UTC)
	require.Len(t, both.channels, 2)
	assert.Equal(t, "email", both.channels[0].Name())
	assert.Equal(t, "sms", both.channels[1].Name())
}

func TestChannels_RequireAddress(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, EmailChannel{}.Send(ctx, Message{To: Contact{Phone: "1"}}), ErrNoAddress)
	assert.NoError(t, EmailChannel{}.Send(ctx, Message{To: Contact{Email: "a@b.it"}}))
	assert.ErrorIs(t, SmsChannel{}.Send(ctx, Message{To: Contact{Email: "a@b.it"}}), ErrNoAddress)
	assert.NoError(t, SmsChannel{}.Send(ctx, Message{To: Contact{Phone: "1"}}))
}
