package dispatch

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/internal/orders"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
)

type stubDispatchRepo struct {
	ordersByID  map[uuid.UUID]*models.Order
	addresses   map[uuid.UUID]*models.Address
	primaries   map[uuid.UUID]*models.Address
	couriers    []models.User
	activeLoads map[uuid.UUID]int
}

func newStubDispatchRepo() *stubDispatchRepo {
	return &stubDispatchRepo{
		ordersByID:  map[uuid.UUID]*models.Order{},
		addresses:   map[uuid.UUID]*models.Address{},
		primaries:   map[uuid.UUID]*models.Address{},
		activeLoads: map[uuid.UUID]int{},
	}
}

func (s *stubDispatchRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.ordersByID[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubDispatchRepo) FindAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	address, ok := s.addresses[addressID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return address, nil
}

func (s *stubDispatchRepo) FindPrimaryAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	return s.primaries[userID], nil
}

func (s *stubDispatchRepo) ListApprovedCouriers(ctx context.Context) ([]models.User, error) {
	return s.couriers, nil
}

func (s *stubDispatchRepo) CountActiveLoad(ctx context.Context, courierID uuid.UUID) (int, error) {
	return s.activeLoads[courierID], nil
}

type stubAssigner struct {
	inputs   []orders.AssignCourierInput
	failWith error
}

func (s *stubAssigner) AssignCourier(ctx context.Context, input orders.AssignCourierInput) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.inputs = append(s.inputs, input)
	return nil
}

type dispatchFixture struct {
	repo     *stubDispatchRepo
	assigner *stubAssigner
	svc      Service
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	repo := newStubDispatchRepo()
	assigner := &stubAssigner{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, assigner, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &dispatchFixture{repo: repo, assigner: assigner, svc: svc}
}

func (f *dispatchFixture) addOrder(city, area string) *models.Order {
	address := &models.Address{ID: uuid.New(), City: city, Area: area}
	f.repo.addresses[address.ID] = address
	order := &models.Order{
		ID:        uuid.New(),
		AddressID: address.ID,
		Status:    enums.OrderStatusPending,
	}
	f.repo.ordersByID[order.ID] = order
	return order
}

func (f *dispatchFixture) addCourier(city, area string, load int) *models.User {
	courier := models.User{ID: uuid.New(), Name: "courier", Role: enums.UserRoleDelivery, Approved: true, IsActive: true}
	f.repo.couriers = append(f.repo.couriers, courier)
	f.repo.activeLoads[courier.ID] = load
	if city != "" {
		f.repo.primaries[courier.ID] = &models.Address{ID: uuid.New(), UserID: courier.ID, City: city, Area: area, IsPrimary: true}
	}
	return &f.repo.couriers[len(f.repo.couriers)-1]
}

func TestAutoAssignPrefersProximityThenLoad(t *testing.T) {
	f := newDispatchFixture(t)
	order := f.addOrder("Cairo", "Maadi")

	f.addCourier("Cairo", "Maadi", 3)             // same area, busy
	f.addCourier("Cairo", "Nasr City", 0)         // same city only, idle
	winner := f.addCourier("Cairo", "Maadi", 1)   // same area, lighter
	f.addCourier("Alexandria", "Miami", 0)        // other city
	f.addCourier("", "", 0)                       // no address on file

	assigned, err := f.svc.AutoAssign(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("auto assign: %v", err)
	}
	if !assigned {
		t.Fatal("expected an assignment")
	}
	if len(f.assigner.inputs) != 1 {
		t.Fatalf("expected one assignment, got %d", len(f.assigner.inputs))
	}
	input := f.assigner.inputs[0]
	if input.CourierID != winner.ID {
		t.Fatalf("assigned courier %s, want %s", input.CourierID, winner.ID)
	}
	if input.Target != enums.OrderStatusAssignToCourier {
		t.Fatalf("assignment target %s", input.Target)
	}
	if input.Actor.Role != enums.UserRoleDelivery || input.Actor.ID != winner.ID {
		t.Fatalf("assignment actor %+v", input.Actor)
	}
	if input.Notes == nil || *input.Notes != autoAssignNote {
		t.Fatal("assignment must carry the dispatcher note")
	}
}

func TestAutoAssignTieBreaksByCourierID(t *testing.T) {
	f := newDispatchFixture(t)
	order := f.addOrder("Cairo", "Maadi")

	a := f.addCourier("Cairo", "Maadi", 1)
	b := f.addCourier("Cairo", "Maadi", 1)
	want := a.ID
	if b.ID.String() < a.ID.String() {
		want = b.ID
	}

	assigned, err := f.svc.AutoAssign(context.Background(), order.ID)
	if err != nil || !assigned {
		t.Fatalf("auto assign: assigned=%v err=%v", assigned, err)
	}
	if got := f.assigner.inputs[0].CourierID; got != want {
		t.Fatalf("tie broke to %s, want %s", got, want)
	}
}

func TestAutoAssignCityMatchIsCaseInsensitive(t *testing.T) {
	f := newDispatchFixture(t)
	order := f.addOrder("cairo", "maadi")

	near := f.addCourier("CAIRO", "MAADI", 5)
	f.addCourier("Giza", "Dokki", 0)

	assigned, err := f.svc.AutoAssign(context.Background(), order.ID)
	if err != nil || !assigned {
		t.Fatalf("auto assign: assigned=%v err=%v", assigned, err)
	}
	if got := f.assigner.inputs[0].CourierID; got != near.ID {
		t.Fatalf("assigned %s, want case-insensitive match %s", got, near.ID)
	}
}

func TestAutoAssignSkipsWhenOrderHasNoAddress(t *testing.T) {
	f := newDispatchFixture(t)
	order := f.addOrder("Cairo", "Maadi")
	delete(f.repo.addresses, order.AddressID)
	f.addCourier("Cairo", "Maadi", 0)

	assigned, err := f.svc.AutoAssign(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("missing address must be non-fatal: %v", err)
	}
	if assigned || len(f.assigner.inputs) != 0 {
		t.Fatal("no assignment expected without an address")
	}
}

func TestAutoAssignSkipsWhenNoCouriers(t *testing.T) {
	f := newDispatchFixture(t)
	order := f.addOrder("Cairo", "Maadi")

	assigned, err := f.svc.AutoAssign(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("empty courier pool must be non-fatal: %v", err)
	}
	if assigned {
		t.Fatal("no assignment expected without couriers")
	}
}

func TestAutoAssignTreatsStateConflictAsSkip(t *testing.T) {
	f := newDispatchFixture(t)
	order := f.addOrder("Cairo", "Maadi")
	f.addCourier("Cairo", "Maadi", 0)
	f.assigner.failWith = pkgerrors.New(pkgerrors.CodeStateConflict, "order was modified concurrently")

	assigned, err := f.svc.AutoAssign(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("lost race must be non-fatal: %v", err)
	}
	if assigned {
		t.Fatal("lost race must report no assignment")
	}
}

func TestAutoAssignUnknownOrder(t *testing.T) {
	f := newDispatchFixture(t)

	_, err := f.svc.AutoAssign(context.Background(), uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
