package usecase

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/internal/domain/service"
	"rikoadmin/internal/infrastructure/export"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

// ReportUseCase builds exports from the backend's current data. It reads the
// backend directly rather than the live board so exports work without one.
type ReportUseCase struct {
	newOrderRepo OrderRepositoryFactory
}

func NewReportUseCase(newOrderRepo OrderRepositoryFactory) *ReportUseCase {
	return &ReportUseCase{
		newOrderRepo: newOrderRepo,
	}
}

// Workbook collects the orders created within [from, to] with their summary
// and debtors. Zero bounds are open.
func (uc *ReportUseCase) Workbook(ctx context.Context, session *entity.Session, from, to time.Time) (export.OrdersWorkbook, error) {
	repo := uc.newOrderRepo(session)

	orders, err := repo.ListByRestaurant(ctx, session.RestaurantID)
	if err != nil {
		return export.OrdersWorkbook{}, err
	}
	orders = service.InDateRange(orders, from, to)
	clients := uc.clientIndex(ctx, repo, session.RestaurantID)

	return export.OrdersWorkbook{
		Rows:    service.BuildRows(orders, clients),
		Summary: service.BuildSummary(orders),
		Debtors: service.BuildDebtors(orders, clients),
	}, nil
}

// ExportOrders writes the orders workbook as xlsx into w.
func (uc *ReportUseCase) ExportOrders(ctx context.Context, session *entity.Session, from, to time.Time, w io.Writer) error {
	wb, err := uc.Workbook(ctx, session, from, to)
	if err != nil {
		return err
	}
	if err := export.WriteOrdersWorkbook(w, wb); err != nil {
		return errors.Internal("Failed to write orders workbook", err)
	}

	logger.Info("Exported %d orders for restaurant %s", len(wb.Rows), session.RestaurantID)
	return nil
}

func (uc *ReportUseCase) Summary(ctx context.Context, session *entity.Session, from, to time.Time) (*service.Summary, error) {
	orders, err := uc.newOrderRepo(session).ListByRestaurant(ctx, session.RestaurantID)
	if err != nil {
		return nil, err
	}
	summary := service.BuildSummary(service.InDateRange(orders, from, to))
	return &summary, nil
}

// Invoice writes the receipt of one order as PDF into w.
func (uc *ReportUseCase) Invoice(ctx context.Context, session *entity.Session, orderID string, w io.Writer) error {
	repo := uc.newOrderRepo(session)

	orders, err := repo.ListByRestaurant(ctx, session.RestaurantID)
	if err != nil {
		return err
	}

	var order *entity.Order
	for _, o := range orders {
		if o.ID == orderID {
			order = o
			break
		}
	}
	if order == nil {
		return errors.NotFound("Order", nil)
	}

	client := order.Client
	if !client.Populated() {
		if found, ok := uc.clientIndex(ctx, repo, session.RestaurantID)[client.ID]; ok {
			client = found
		}
	}

	if err := export.WriteInvoicePDF(w, export.NewInvoice(order, session.RestaurantName, client)); err != nil {
		return errors.Internal("Failed to render invoice", err)
	}
	return nil
}

// Dashboard returns the backend's statistics for the restaurant as-is.
func (uc *ReportUseCase) Dashboard(ctx context.Context, session *entity.Session) (json.RawMessage, error) {
	return uc.newOrderRepo(session).Statistics(ctx, session.RestaurantID)
}

// Clients lists the restaurant's clients. search matches first name, last
// name, email or phone, case-insensitive.
func (uc *ReportUseCase) Clients(ctx context.Context, session *entity.Session, search string) ([]*entity.ClientSummary, error) {
	clients, err := uc.newOrderRepo(session).ListClients(ctx, session.RestaurantID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return clients, nil
	}

	out := make([]*entity.ClientSummary, 0, len(clients))
	for _, c := range clients {
		if c == nil {
			continue
		}
		for _, field := range []string{c.Client.Name, c.Client.LastName, c.Client.Email, c.Client.Phone} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// clientIndex falls back to an empty index; labels then read "Cliente no
// encontrado" for orders without an embedded client.
func (uc *ReportUseCase) clientIndex(ctx context.Context, repo repository.OrderRepository, restaurantID string) service.ClientIndex {
	clients, err := repo.ListClients(ctx, restaurantID)
	if err != nil {
		logger.Warn("Failed to load clients for restaurant %s, exporting without lookup: %v", restaurantID, err)
		return service.ClientIndex{}
	}
	return service.NewClientIndex(clients)
}
