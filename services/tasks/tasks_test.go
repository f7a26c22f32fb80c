package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/models"
)

// MockEnqueuer mocks the asynq client
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task.Type(), len(opts))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// MockRemover mocks the asynq inspector
type MockRemover struct {
	mock.Mock
}

func (m *MockRemover) DeleteTask(queue, id string) error {
	args := m.Called(queue, id)
	return args.Error(0)
}

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

func queueBooking() models.Booking {
	return models.Booking{
		ID:        primitive.NewObjectID(),
		Kind:      models.KindQueue,
		Reference: "TKT-LOYW3V28-AB12C",
		Status:    models.StatusBooked,
		Queue: &models.QueueTicket{
			TempleName: "Mahakaleshwar",
			Name:       "Ravi Kumar",
			Phone:      "9123456789",
			Persons:    3,
			Date:       "2028-04-10",
			GateNumber: "Gate-2",
		},
	}
}

func TestReminderTime(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2028, 4, 1, 12, 0, 0, 0, loc)

	fireAt, ok := ReminderTime("2028-04-10", loc, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2028, 4, 9, 18, 0, 0, 0, loc), fireAt)

	_, ok = ReminderTime("2028-04-01", loc, now)
	assert.False(t, ok, "reminder moment already passed")

	_, ok = ReminderTime("", loc, now)
	assert.False(t, ok)
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	notice := models.NoticeFor(queueBooking(), nil)
	task, opts, err := NewBookingReminderTask(notice, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, TypeBookingReminder, task.Type())
	assert.Len(t, opts, 3)

	got, err := ParseNotice(task)
	require.NoError(t, err)
	assert.Equal(t, notice, got)

	_, err = ParseNotice(asynq.NewTask(TypeBookingConfirmed, []byte("nope")))
	assert.Error(t, err)
}

func TestPublisherEnqueuesConfirmationAndReminder(t *testing.T) {
	loc := kolkata(t)
	client := new(MockEnqueuer)
	client.On("EnqueueContext", mock.Anything, TypeBookingConfirmed, 1).Return(&asynq.TaskInfo{}, nil).Once()
	client.On("EnqueueContext", mock.Anything, TypeBookingReminder, 3).Return(&asynq.TaskInfo{}, nil).Once()

	p := NewAsynqPublisher(client, nil, loc, zap.NewNop())
	p.now = func() time.Time { return time.Date(2028, 4, 1, 9, 0, 0, 0, loc) }
	p.BookingCreated(context.Background(), queueBooking(), nil)

	client.AssertExpectations(t)
}

func TestPublisherSkipsPastReminderAndSwallowsErrors(t *testing.T) {
	loc := kolkata(t)
	client := new(MockEnqueuer)
	client.On("EnqueueContext", mock.Anything, TypeBookingConfirmed, 1).Return(nil, errors.New("redis down")).Once()

	p := NewAsynqPublisher(client, nil, loc, zap.NewNop())
	p.now = func() time.Time { return time.Date(2028, 4, 10, 9, 0, 0, 0, loc) }
	p.BookingCreated(context.Background(), queueBooking(), nil)

	client.AssertExpectations(t)
	client.AssertNotCalled(t, "EnqueueContext", mock.Anything, TypeBookingReminder, mock.Anything)
}

func TestSlotNoticeCarriesSlotDetails(t *testing.T) {
	slot := &models.Slot{ID: primitive.NewObjectID(), Date: "2028-04-10", Time: "06:00-07:00", Ghat: "Ram Ghat"}
	b := models.Booking{
		ID:        primitive.NewObjectID(),
		Kind:      models.KindSlot,
		Reference: "BKG-LOYW3V28-AB12C",
		Status:    models.StatusBooked,
		Slot: &models.SlotReservation{
			SlotID:         slot.ID,
			User:           models.Pilgrim{FullName: "Asha Verma", Phone: "9876543210", AadhaarLast4: "9012"},
			NumberOfPeople: 2,
		},
	}
	n := models.NoticeFor(b, slot)
	assert.Equal(t, "Asha Verma", n.Name)
	assert.Equal(t, "Ram Ghat", n.Ghat)
	assert.Equal(t, 2, n.Persons)
	assert.Equal(t, "2028-04-10", n.Date)
}

func TestPublisherRemovesReminderOnCancel(t *testing.T) {
	remover := new(MockRemover)
	remover.On("DeleteTask", Queue, "reminder:TKT-LOYW3V28-AB12C").Return(nil).Once()

	p := NewAsynqPublisher(new(MockEnqueuer), remover, kolkata(t), zap.NewNop())
	p.BookingCancelled(context.Background(), queueBooking())

	remover.AssertExpectations(t)
}

func TestPublisherCancelToleratesMissingReminder(t *testing.T) {
	remover := new(MockRemover)
	remover.On("DeleteTask", Queue, mock.Anything).Return(fmt.Errorf("asynq: %w", asynq.ErrTaskNotFound)).Once()

	p := NewAsynqPublisher(new(MockEnqueuer), remover, kolkata(t), zap.NewNop())
	assert.NotPanics(t, func() { p.BookingCancelled(context.Background(), queueBooking()) })
	remover.AssertExpectations(t)

	// Without an inspector there is nothing to remove.
	NewAsynqPublisher(new(MockEnqueuer), nil, kolkata(t), zap.NewNop()).BookingCancelled(context.Background(), queueBooking())
}
