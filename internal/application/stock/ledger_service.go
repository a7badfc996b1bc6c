package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/shared"
	"github.com/tradelink/backend/internal/domain/stock"
)

// LedgerService handles the manually maintained side of the stock ledgers:
// establishing entries, restocking, thresholds and low-stock queries. The
// order-driven mutations go through the stock synchronizer instead.
type LedgerService struct {
	repo stock.Repository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repo stock.Repository) *LedgerService {
	return &LedgerService{repo: repo}
}

// ownKind maps an actor to the ledger kind they maintain manually
func ownKind(actor order.Actor) (stock.LedgerKind, error) {
	switch actor.Role {
	case order.RoleWholesaler:
		return stock.KindWholesaler, nil
	case order.RoleRetailer:
		return stock.KindRetailer, nil
	}
	return "", shared.ErrForbidden
}

// Create establishes a manually tracked ledger entry for a product owned by
// the acting wholesaler or retailer
func (s *LedgerService) Create(ctx context.Context, actor order.Actor, req CreateLedgerRequest) (*LedgerResponse, error) {
	kind, err := ownKind(actor)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindForProduct(ctx, kind, actor.UserID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("LEDGER_EXISTS", "A ledger entry for this product already exists")
	}

	ledger, err := stock.NewLedger(kind, actor.UserID, req.ProductID, req.Quantity, req.MinStockLevel)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, ledger); err != nil {
		return nil, err
	}

	response := ToLedgerResponse(ledger)
	return &response, nil
}

// List retrieves the ledger entries visible to the actor. Retailers see both
// their manual entries and the system-tracked mirror of certified orders;
// admins may pass an explicit kind filter.
func (s *LedgerService) List(ctx context.Context, actor order.Actor, filter LedgerListFilter) (*shared.Paginated[LedgerResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.LowStock != nil {
		domainFilter.Filters["low_stock_alert"] = *filter.LowStock
	}

	kind, err := s.resolveKind(actor, filter.Kind)
	if err != nil {
		return nil, err
	}

	ledgers, err := s.repo.FindByOwner(ctx, kind, actor.UserID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByOwner(ctx, kind, actor.UserID, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToLedgerResponses(ledgers), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// resolveKind picks the ledger kind a list request addresses
func (s *LedgerService) resolveKind(actor order.Actor, requested *string) (stock.LedgerKind, error) {
	if requested != nil {
		kind := stock.LedgerKind(*requested)
		if !kind.IsValid() {
			return "", shared.NewDomainError("INVALID_LEDGER_KIND", "Unknown stock ledger kind")
		}
		switch actor.Role {
		case order.RoleWholesaler:
			if kind != stock.KindWholesaler {
				return "", shared.ErrForbidden
			}
		case order.RoleRetailer:
			if kind != stock.KindRetailer && kind != stock.KindSystem {
				return "", shared.ErrForbidden
			}
		case order.RoleAdmin:
			// Admins may inspect any kind.
		default:
			return "", shared.ErrForbidden
		}
		return kind, nil
	}
	return ownKind(actor)
}

// LowStock retrieves the actor's entries whose low-stock alert is raised
func (s *LedgerService) LowStock(ctx context.Context, actor order.Actor) ([]LedgerResponse, error) {
	kind, err := ownKind(actor)
	if err != nil {
		return nil, err
	}
	ledgers, err := s.repo.FindLowStockByOwner(ctx, kind, actor.UserID)
	if err != nil {
		return nil, err
	}
	return ToLedgerResponses(ledgers), nil
}

// SetThreshold changes the reorder threshold on one of the actor's entries
func (s *LedgerService) SetThreshold(ctx context.Context, actor order.Actor, ledgerID uuid.UUID, req SetThresholdRequest) (*LedgerResponse, error) {
	ledger, err := s.ownedLedger(ctx, actor, ledgerID)
	if err != nil {
		return nil, err
	}
	if err := ledger.SetMinStockLevel(req.MinStockLevel); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, ledger); err != nil {
		return nil, err
	}
	response := ToLedgerResponse(ledger)
	return &response, nil
}

// Restock adds quantity to one of the actor's manually tracked entries
func (s *LedgerService) Restock(ctx context.Context, actor order.Actor, ledgerID uuid.UUID, req RestockRequest) (*LedgerResponse, error) {
	ledger, err := s.ownedLedger(ctx, actor, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.Kind == stock.KindSystem {
		return nil, shared.NewDomainError("INVALID_LEDGER_KIND", "System-tracked entries cannot be restocked manually")
	}
	if err := ledger.Restore(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, ledger); err != nil {
		return nil, err
	}
	response := ToLedgerResponse(ledger)
	return &response, nil
}

// ownedLedger loads a ledger entry and checks the actor owns it
func (s *LedgerService) ownedLedger(ctx context.Context, actor order.Actor, ledgerID uuid.UUID) (*stock.Ledger, error) {
	ledger, err := s.repo.FindByID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger.OwnerID != actor.UserID {
		return nil, shared.ErrForbidden
	}
	return ledger, nil
}
