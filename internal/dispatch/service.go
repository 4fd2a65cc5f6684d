package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/internal/orders"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
)

const autoAssignNote = "auto-assigned by dispatcher"

// Service selects couriers for newly created orders.
type Service interface {
	AutoAssign(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type service struct {
	repo     Repository
	assigner Assigner
	logg     *logger.Logger
}

type candidate struct {
	courier models.User
	score   int
	load    int
}

// NewService builds the courier dispatcher.
func NewService(repo Repository, assigner Assigner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
	}
	if assigner == nil {
		return nil, fmt.Errorf("assigner required")
	}
	return &service{repo: repo, assigner: assigner, logg: logg}, nil
}

// AutoAssign picks the courier minimizing (proximity score, active load),
// with courier id as the final deterministic tie break, and assigns through
// the guarded transition path. All failure modes are non-fatal: the order
// stays assignable via the manual path.
func (s *service) AutoAssign(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	address, err := s.repo.FindAddress(ctx, order.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.debug(ctx, orderID, "dispatch skipped: order has no resolvable address")
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order address")
	}

	couriers, err := s.repo.ListApprovedCouriers(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list couriers")
	}
	if len(couriers) == 0 {
		s.debug(ctx, orderID, "dispatch skipped: no approved couriers")
		return false, nil
	}

	candidates := make([]candidate, 0, len(couriers))
	for _, courier := range couriers {
		courierAddress, err := s.repo.FindPrimaryAddress(ctx, courier.ID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier address")
		}
		load, err := s.repo.CountActiveLoad(ctx, courier.ID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count courier load")
		}
		candidates = append(candidates, candidate{
			courier: courier,
			score:   proximityScore(address, courierAddress),
			load:    load,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		if candidates[i].load != candidates[j].load {
			return candidates[i].load < candidates[j].load
		}
		return candidates[i].courier.ID.String() < candidates[j].courier.ID.String()
	})

	best := candidates[0]
	note := autoAssignNote
	err = s.assigner.AssignCourier(ctx, orders.AssignCourierInput{
		OrderID:   order.ID,
		CourierID: best.courier.ID,
		Target:    enums.OrderStatusAssignToCourier,
		Actor:     orders.Actor{ID: best.courier.ID, Role: enums.UserRoleDelivery},
		Notes:     &note,
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeStateConflict {
			s.debug(ctx, orderID, "dispatch skipped: order no longer assignable")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// proximityScore ranks a courier against the delivery address: 0 for same
// city and area, 1 for same city, 2 otherwise (couriers without an address
// on file score worst).
func proximityScore(order, courier *models.Address) int {
	if courier == nil {
		return 2
	}
	if !strings.EqualFold(order.City, courier.City) {
		return 2
	}
	if strings.EqualFold(order.Area, courier.Area) {
		return 0
	}
	return 1
}

func (s *service) debug(ctx context.Context, orderID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithOrderID(ctx, orderID.String()), msg)
}
