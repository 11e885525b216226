package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookline/models"
	"bookline/services/calendar"
)

// fakeCalendar is an in-memory conflict-checked calendar.
type fakeCalendar struct {
	mu     sync.Mutex
	busy   map[string][]calendar.BusyInterval
	events map[string]*calendar.Event
	nextID int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		busy:   make(map[string][]calendar.BusyInterval),
		events: make(map[string]*calendar.Event),
	}
}

func (f *fakeCalendar) ListBusy(ctx context.Context, ref string, from, to time.Time) ([]calendar.BusyInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []calendar.BusyInterval
	for _, iv := range f.busy[ref] {
		if iv.Start.Before(to) && iv.End.After(from) {
			out = append(out, iv)
		}
	}
	for _, ev := range f.events {
		if ev.CalendarRef == ref && ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, calendar.BusyInterval{Start: ev.Start, End: ev.End})
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, event *calendar.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, iv := range f.busy[event.CalendarRef] {
		if iv.Start.Before(event.End) && iv.End.After(event.Start) {
			return "", calendar.ErrConflict
		}
	}
	for _, ev := range f.events {
		if ev.CalendarRef == event.CalendarRef && ev.Start.Before(event.End) && ev.End.After(event.Start) {
			return "", calendar.ErrConflict
		}
	}
	f.nextID++
	id := fmt.Sprintf("evt-%d", f.nextID)
	stored := *event
	stored.ID = id
	f.events[id] = &stored
	return id, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, event *calendar.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.events[event.ID]
	if !ok {
		return fmt.Errorf("event %s not found", event.ID)
	}
	existing.Start, existing.End, existing.Summary = event.Start, event.End, event.Summary
	return nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, ref, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
	return nil
}

func (f *fakeCalendar) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// fakeBookingRepo is an in-memory booking store.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	failCreate error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (f *fakeBookingRepo) Create(b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeBookingRepo) GetByID(tenantID, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, fmt.Errorf("booking %s not found", id)
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) Update(b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[b.ID]; !ok {
		return fmt.Errorf("booking %s not found", b.ID)
	}
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeBookingRepo) ListActiveByCustomer(tenantID, customerRef string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.TenantID == tenantID && b.CustomerRef == customerRef && b.Status == models.BookingConfirmed {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListOverlapping(tenantID, resourceID string, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.TenantID == tenantID && b.ResourceID == resourceID && b.Status == models.BookingConfirmed &&
			b.StartTime.Before(end) && b.EndTime.After(start) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListConfirmedInWindow(from, to time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(cal *fakeCalendar, repo *fakeBookingRepo) *DefaultBookingService {
	svc := NewDefaultBookingService(cal, repo)
	svc.now = func() time.Time { return testNow }
	return svc
}

func salonTenant() *models.TenantConfig {
	return &models.TenantConfig{
		ID:                  "salon-1",
		BusinessName:        "Shear Genius",
		BusinessType:        models.BusinessSalon,
		Timezone:            "UTC",
		Currency:            "EUR",
		BusinessHours:       models.BusinessHours{Start: "09:00", End: "18:00"},
		DefaultSlotDuration: 30,
		CalendarRef:         "salon-cal",
		Catalog: models.Catalog{Services: []models.ServiceOffering{
			{Name: "Haircut", Price: 25, Duration: 30},
			{Name: "Coloring", Price: 60, Duration: 90},
		}},
	}
}

func clinicTenant() *models.TenantConfig {
	return &models.TenantConfig{
		ID:                  "clinic-1",
		BusinessName:        "City Clinic",
		BusinessType:        models.BusinessClinic,
		Timezone:            "UTC",
		Currency:            "EUR",
		BusinessHours:       models.BusinessHours{Start: "08:00", End: "16:00"},
		DefaultSlotDuration: 20,
		CalendarRef:         "clinic-cal",
		Resources: []models.Resource{
			{ID: "dr-lopez", Name: "Dr. Lopez", CalendarRef: "cal-lopez"},
			{ID: "dr-chen", Name: "Dr. Chen", CalendarRef: "cal-chen"},
		},
		Catalog: models.Catalog{Services: []models.ServiceOffering{
			{Name: "General consultation", Price: 40, Duration: 20},
		}},
	}
}

func TestClinicCreateWithoutResourceFailsClosed(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	svc := newTestService(cal, repo)

	_, err := svc.CreateBooking(context.Background(), clinicTenant(), CreateRequest{
		CustomerRef: "+34600000001",
		Date:        "2026-03-02",
		Time:        "10:00",
		Service:     "General consultation",
	})

	var resErr *ResourceRequiredError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResourceRequiredError, got %v", err)
	}
	if len(resErr.Options) != 2 || resErr.Options[0] != "Dr. Lopez" || resErr.Options[1] != "Dr. Chen" {
		t.Errorf("options should list both professionals, got %v", resErr.Options)
	}
	if repo.count() != 0 {
		t.Error("no booking record may be created")
	}
	if cal.eventCount() != 0 {
		t.Error("no calendar event may be created")
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	svc := newTestService(cal, repo)
	tenant := clinicTenant()

	result, err := svc.CreateBooking(context.Background(), tenant, CreateRequest{
		CustomerRef: "+34600000002",
		Date:        "2026-03-02",
		Time:        "10:00",
		Service:     "General consultation",
		ResourceID:  "dr-chen",
		Attributes:  map[string]string{models.AttrEmail: "pat@example.com"},
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if result.Booking.CalendarEventID == "" {
		t.Error("booking should carry the mirrored event id")
	}

	title, bookings, err := svc.ListMyBookings(context.Background(), tenant, "+34600000002")
	if err != nil {
		t.Fatalf("ListMyBookings: %v", err)
	}
	if title != "Your scheduled appointments" {
		t.Errorf("unexpected title %q", title)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(bookings))
	}
	got := bookings[0]
	wantStart := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if !got.StartTime.Equal(wantStart) || !got.EndTime.Equal(wantStart.Add(20*time.Minute)) {
		t.Errorf("times do not round-trip: %v-%v", got.StartTime, got.EndTime)
	}
	if got.ResourceID != "dr-chen" {
		t.Errorf("resource does not round-trip: %q", got.ResourceID)
	}
	if got.Attributes[models.AttrEmail] != "pat@example.com" {
		t.Errorf("attributes do not round-trip: %v", got.Attributes)
	}
}

func TestConcurrentCreatesOnlyOneWins(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	svc := newTestService(cal, repo)
	tenant := salonTenant()

	req := CreateRequest{
		Date:    "2026-03-02",
		Time:    "11:00",
		Service: "Haircut",
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := req
			r.CustomerRef = fmt.Sprintf("+3460000010%d", i)
			_, errs[i] = svc.CreateBooking(context.Background(), tenant, r)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			var slotErr *SlotUnavailableError
			if errors.As(err, &slotErr) {
				conflicts++
			} else {
				t.Errorf("unexpected error kind: %v", err)
			}
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("want exactly one success and one SlotUnavailableError, got %d/%d", successes, conflicts)
	}
	if cal.eventCount() != 1 {
		t.Errorf("exactly one calendar event expected, got %d", cal.eventCount())
	}
}

func TestValidationTable(t *testing.T) {
	store := &models.TenantConfig{
		ID: "store-1", BusinessName: "Corner Shop", BusinessType: models.BusinessStore,
		Timezone: "UTC", Currency: "EUR",
		BusinessHours:       models.BusinessHours{Start: "09:00", End: "20:00"},
		DefaultSlotDuration: 60,
		CalendarRef:         "store-cal",
		DeliveryPolicy: &models.DeliveryPolicy{
			DeliveryHours:    models.BusinessHours{Start: "10:00", End: "17:00"},
			DeliveryDuration: 60,
		},
	}
	restaurant := &models.TenantConfig{
		ID: "rest-1", BusinessName: "Trattoria", BusinessType: models.BusinessRestaurant,
		Timezone: "UTC", Currency: "EUR",
		BusinessHours:       models.BusinessHours{Start: "12:00", End: "23:00"},
		DefaultSlotDuration: 90,
		CalendarRef:         "rest-cal",
	}

	cases := []struct {
		name   string
		tenant *models.TenantConfig
		req    CreateRequest
	}{
		{"salon without service", salonTenant(), CreateRequest{Date: "2026-03-02", Time: "10:00"}},
		{"salon with unknown service", salonTenant(), CreateRequest{Date: "2026-03-02", Time: "10:00", Service: "Tattoo"}},
		{"store without address", store, CreateRequest{Date: "2026-03-02", Time: "11:00", Service: "Groceries"}},
		{"restaurant without party size", restaurant, CreateRequest{Date: "2026-03-02", Time: "20:00"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(newFakeCalendar(), newFakeBookingRepo())
			tc.req.CustomerRef = "+34600000003"
			_, err := svc.CreateBooking(context.Background(), tc.tenant, tc.req)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestGeneralCreateNeedsOnlyTime(t *testing.T) {
	tenant := &models.TenantConfig{
		ID: "gen-1", BusinessName: "Workshop", BusinessType: models.BusinessGeneral,
		Timezone: "UTC", Currency: "EUR",
		BusinessHours:       models.BusinessHours{Start: "09:00", End: "17:00"},
		DefaultSlotDuration: 60,
		CalendarRef:         "gen-cal",
	}
	svc := newTestService(newFakeCalendar(), newFakeBookingRepo())

	result, err := svc.CreateBooking(context.Background(), tenant, CreateRequest{
		CustomerRef: "+34600000004",
		Date:        "2026-03-02",
		Time:        "09:00",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if result.Booking.Status != models.BookingConfirmed {
		t.Errorf("expected confirmed status, got %s", result.Booking.Status)
	}
}

func TestStoreAvailabilityNotApplicableWithoutCalendar(t *testing.T) {
	tenant := &models.TenantConfig{
		ID: "store-2", BusinessName: "Walk-in Shop", BusinessType: models.BusinessStore,
		Timezone: "UTC", Currency: "EUR",
		BusinessHours:       models.BusinessHours{Start: "09:00", End: "20:00"},
		DefaultSlotDuration: 60,
	}
	svc := newTestService(newFakeCalendar(), newFakeBookingRepo())

	result, err := svc.FindAvailability(context.Background(), tenant, AvailabilityRequest{Date: "2026-03-02"})
	if err != nil {
		t.Fatalf("FindAvailability: %v", err)
	}
	if result.Applicable {
		t.Error("store without calendar should not be applicable")
	}
	if result.Reason == "" {
		t.Error("a reason should explain why")
	}
}

func TestStoreDeliveryWindowOverridesHours(t *testing.T) {
	tenant := &models.TenantConfig{
		ID: "store-3", BusinessName: "Deli", BusinessType: models.BusinessStore,
		Timezone: "UTC", Currency: "EUR",
		BusinessHours:       models.BusinessHours{Start: "09:00", End: "20:00"},
		DefaultSlotDuration: 30,
		CalendarRef:         "deli-cal",
		DeliveryPolicy: &models.DeliveryPolicy{
			DeliveryHours:    models.BusinessHours{Start: "10:00", End: "17:00"},
			DeliveryDuration: 60,
		},
	}
	cal := newFakeCalendar()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cal.busy["deli-cal"] = []calendar.BusyInterval{{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)}}
	svc := newTestService(cal, newFakeBookingRepo())

	result, err := svc.FindAvailability(context.Background(), tenant, AvailabilityRequest{Date: "2026-03-02"})
	if err != nil {
		t.Fatalf("FindAvailability: %v", err)
	}
	if !result.Applicable {
		t.Fatalf("expected applicable result: %s", result.Reason)
	}
	if len(result.Slots) == 0 {
		t.Fatal("expected slots")
	}
	if !result.Slots[0].Start.Equal(day.Add(11 * time.Hour)) {
		t.Errorf("first slot starts at %v, want 11:00", result.Slots[0].Start)
	}
	if result.Duration != 60 {
		t.Errorf("delivery duration should win, got %d", result.Duration)
	}
}

func TestCancelBooking(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	svc := newTestService(cal, repo)
	tenant := salonTenant()

	created, err := svc.CreateBooking(context.Background(), tenant, CreateRequest{
		CustomerRef: "+34600000005",
		Date:        "2026-03-02",
		Time:        "15:00",
		Service:     "Haircut",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if _, err := svc.CancelBooking(context.Background(), tenant, "+34600000005", created.Booking.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	stored, err := repo.GetByID(tenant.ID, created.Booking.ID)
	if err != nil {
		t.Fatalf("record should survive cancellation: %v", err)
	}
	if stored.Status != models.BookingCancelled {
		t.Errorf("status should be cancelled, got %s", stored.Status)
	}
	if cal.eventCount() != 0 {
		t.Error("calendar event should be deleted")
	}

	// Cancelling someone else's booking looks like a missing booking.
	_, err = svc.CancelBooking(context.Background(), tenant, "+34600009999", created.Booking.ID)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("expected NotFoundError for foreign booking, got %v", err)
	}
}

func TestModifyBookingMovesEvent(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	svc := newTestService(cal, repo)
	tenant := salonTenant()

	created, err := svc.CreateBooking(context.Background(), tenant, CreateRequest{
		CustomerRef: "+34600000006",
		Date:        "2026-03-02",
		Time:        "15:00",
		Service:     "Haircut",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	result, err := svc.ModifyBooking(context.Background(), tenant, ModifyRequest{
		BookingID:   created.Booking.ID,
		CustomerRef: "+34600000006",
		NewTime:     "16:00",
	})
	if err != nil {
		t.Fatalf("ModifyBooking: %v", err)
	}
	wantStart := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	if !result.Booking.StartTime.Equal(wantStart) {
		t.Errorf("booking moved to %v, want 16:00", result.Booking.StartTime)
	}

	ev := cal.events[created.Booking.CalendarEventID]
	if ev == nil || !ev.Start.Equal(wantStart) {
		t.Error("calendar event should follow the booking")
	}
}

func TestConfirmBookingResponses(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	svc := newTestService(cal, repo)
	tenant := salonTenant()

	created, err := svc.CreateBooking(context.Background(), tenant, CreateRequest{
		CustomerRef: "+34600000007",
		Date:        "2026-03-02",
		Time:        "12:00",
		Service:     "Haircut",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// With a single active booking, no explicit reference is needed.
	yes, err := svc.ConfirmBooking(context.Background(), tenant, "+34600000007", "", ConfirmYes)
	if err != nil {
		t.Fatalf("ConfirmBooking(yes): %v", err)
	}
	if yes.Booking.ID != created.Booking.ID {
		t.Error("should resolve the single active booking from context")
	}

	resched, err := svc.ConfirmBooking(context.Background(), tenant, "+34600000007", "", ConfirmReschedule)
	if err != nil {
		t.Fatalf("ConfirmBooking(reschedule): %v", err)
	}
	if !resched.NeedsNewTime {
		t.Error("reschedule should ask for a new time")
	}

	no, err := svc.ConfirmBooking(context.Background(), tenant, "+34600000007", "", ConfirmNo)
	if err != nil {
		t.Fatalf("ConfirmBooking(no): %v", err)
	}
	if no.Booking.Status != models.BookingCancelled {
		t.Error("answering no should cancel the booking")
	}
}

func TestCreateCompensatesOnPersistenceFailure(t *testing.T) {
	cal := newFakeCalendar()
	repo := newFakeBookingRepo()
	repo.failCreate = fmt.Errorf("disk full")
	svc := newTestService(cal, repo)

	_, err := svc.CreateBooking(context.Background(), salonTenant(), CreateRequest{
		CustomerRef: "+34600000008",
		Date:        "2026-03-02",
		Time:        "10:00",
		Service:     "Haircut",
	})

	var upErr *UpstreamUnavailableError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamUnavailableError, got %v", err)
	}
	if cal.eventCount() != 0 {
		t.Error("calendar event should be compensated away")
	}
}

func TestRestaurantOfferingsWithoutMenuGivesGuidance(t *testing.T) {
	tenant := &models.TenantConfig{
		ID: "rest-2", BusinessName: "Bistro", BusinessType: models.BusinessRestaurant,
		Timezone: "UTC", Currency: "EUR",
		BusinessHours:       models.BusinessHours{Start: "12:00", End: "23:00"},
		DefaultSlotDuration: 90,
	}
	svc := newTestService(newFakeCalendar(), newFakeBookingRepo())

	result, err := svc.ListOfferings(context.Background(), tenant)
	if err != nil {
		t.Fatalf("ListOfferings: %v", err)
	}
	if result.Note == "" {
		t.Error("expected guidance when no menu is configured")
	}
}
