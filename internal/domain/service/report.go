package service

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"rikoadmin/internal/domain/entity"
)

// Column headers of the exported sheets. Order and wording are part of the
// export format consumers rely on.
var (
	OrderColumns   = []string{"Número de Orden", "Estado", "Cliente", "Total", "Método de Pago", "Fecha"}
	SummaryColumns = []string{"Descripción", "Valor"}
	DebtorColumns  = []string{"Número de Orden", "Cliente", "Total Adeudado"}
)

const (
	clientNotFound       = "Cliente no encontrado"
	paymentNotAvailable  = "Método no disponible"
	dateNotAvailable     = "No disponible"
	reportDateTimeLayout = "02/01/2006 15:04:05"
	summaryTotalOrders   = "Total de Órdenes"
	summaryTotalIncome   = "Total de Ingresos"
	summaryAverageIncome = "Promedio de Ingresos por Orden"
)

type ReportRow struct {
	OrderID       string  `json:"order_id"`
	State         string  `json:"state"`
	Client        string  `json:"client"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"payment_method"`
	Date          string  `json:"date"`
}

// Values returns the row in OrderColumns order.
func (r ReportRow) Values() []interface{} {
	return []interface{}{r.OrderID, r.State, r.Client, r.Total, r.PaymentMethod, r.Date}
}

type Summary struct {
	TotalOrders   int     `json:"total_orders"`
	TotalIncome   float64 `json:"total_income"`
	AverageIncome float64 `json:"average_income"`
}

// Rows returns the summary as description/value pairs for the summary sheet.
func (s Summary) Rows() [][]interface{} {
	return [][]interface{}{
		{summaryTotalOrders, s.TotalOrders},
		{summaryTotalIncome, s.TotalIncome},
		{summaryAverageIncome, s.AverageIncome},
	}
}

type DebtorRow struct {
	OrderID    string  `json:"order_id"`
	Client     string  `json:"client"`
	AmountOwed float64 `json:"amount_owed"`
}

func (r DebtorRow) Values() []interface{} {
	return []interface{}{r.OrderID, r.Client, r.AmountOwed}
}

// DerivedTotal is what the restaurant actually received for the order:
// total + total2, minus the change when a second payment was recorded.
func DerivedTotal(o *entity.Order) float64 {
	sum := decimal.NewFromFloat(o.Total)
	if o.Total2 != nil {
		sum = sum.Add(decimal.NewFromFloat(*o.Total2)).Sub(decimal.NewFromFloat(o.Change))
	}
	return sum.Round(2).InexactFloat64()
}

// ClientIndex resolves client ids to labels for orders whose client is not
// populated.
type ClientIndex map[string]entity.ClientRef

func NewClientIndex(clients []*entity.ClientSummary) ClientIndex {
	idx := make(ClientIndex, len(clients))
	for _, c := range clients {
		if c != nil && c.Client.ID != "" {
			idx[c.Client.ID] = c.Client
		}
	}
	return idx
}

func (idx ClientIndex) Label(ref entity.ClientRef) string {
	client := ref
	if !client.Populated() {
		found, ok := idx[ref.ID]
		if !ok {
			return clientNotFound
		}
		client = found
	}
	if client.IDNumber == "" {
		return client.FullName()
	}
	return client.FullName() + " - " + client.IDNumber
}

// BuildRows lists every order, cancelled ones included.
func BuildRows(orders []*entity.Order, clients ClientIndex) []ReportRow {
	rows := make([]ReportRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, ReportRow{
			OrderID:       o.ID,
			State:         capitalize(string(DisplayState(o))),
			Client:        clients.Label(o.Client),
			Total:         DerivedTotal(o),
			PaymentMethod: paymentLabel(o.PaymentMethod),
			Date:          dateLabel(o.CreatedAt),
		})
	}
	return rows
}

// BuildSummary aggregates income over non-cancelled orders. Credit orders count
// towards the number of orders but not towards income.
func BuildSummary(orders []*entity.Order) Summary {
	count := 0
	income := decimal.Zero
	for _, o := range orders {
		if o.Status == entity.OrderStatusCancelled {
			continue
		}
		count++
		if o.PaymentMethod == entity.PaymentMethodCredit {
			continue
		}
		income = income.Add(decimal.NewFromFloat(DerivedTotal(o)))
	}

	s := Summary{TotalOrders: count, TotalIncome: income.Round(2).InexactFloat64()}
	if count > 0 {
		s.AverageIncome = income.Div(decimal.NewFromInt(int64(count))).Round(2).InexactFloat64()
	}
	return s
}

// BuildDebtors selects credit orders that are still owed.
func BuildDebtors(orders []*entity.Order, clients ClientIndex) []DebtorRow {
	var rows []DebtorRow
	for _, o := range orders {
		if o.PaymentMethod != entity.PaymentMethodCredit || o.Status == entity.OrderStatusCancelled {
			continue
		}
		rows = append(rows, DebtorRow{
			OrderID:    o.ID,
			Client:     clients.Label(o.Client),
			AmountOwed: DerivedTotal(o),
		})
	}
	return rows
}

// PaymentLabel renders a payment method the way receipts and exports show it.
func PaymentLabel(method string) string {
	return paymentLabel(method)
}

func paymentLabel(method string) string {
	if strings.TrimSpace(method) == "" {
		return paymentNotAvailable
	}
	return capitalize(method)
}

func dateLabel(t time.Time) string {
	if t.IsZero() {
		return dateNotAvailable
	}
	return t.Local().Format(reportDateTimeLayout)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
