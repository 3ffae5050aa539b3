package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/service"
)

const InvoiceMIME = "application/pdf"

// Invoice is the printable receipt of one order.
type Invoice struct {
	RestaurantName string
	OrderID        string
	Date           string
	ClientID       string
	ClientName     string
	Payments       string
	Total          float64
	Change         float64
	Lines          []InvoiceLine
	GrandTotal     float64
}

type InvoiceLine struct {
	Product   string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

func InvoiceFileName(orderID string) string {
	return fmt.Sprintf("Factura_Orden_%s.pdf", orderID)
}

// NewInvoice collects what the receipt prints for order. client is used when
// the order only carries a client id.
func NewInvoice(order *entity.Order, restaurantName string, client entity.ClientRef) Invoice {
	if order.Client.Populated() {
		client = order.Client
	}

	inv := Invoice{
		RestaurantName: restaurantName,
		OrderID:        order.ID,
		Date:           "No disponible",
		ClientID:       orDefault(client.IDNumber),
		ClientName:     orDefault(client.FullName()),
		Payments:       paymentSummary(order),
		Total:          service.DerivedTotal(order),
		Change:         order.Change,
	}
	if !order.CreatedAt.IsZero() {
		inv.Date = order.CreatedAt.In(time.Local).Format("02/01/2006 15:04")
	}

	grand := decimal.Zero
	for _, item := range order.Items {
		subtotal := decimal.NewFromInt(int64(item.Quantity)).Mul(decimal.NewFromFloat(item.Price())).Round(2)
		grand = grand.Add(subtotal)
		inv.Lines = append(inv.Lines, InvoiceLine{
			Product:   orDefault(item.Product.Name),
			Quantity:  item.Quantity,
			UnitPrice: item.Price(),
			Subtotal:  subtotal.InexactFloat64(),
		})
	}
	inv.GrandTotal = grand.Round(2).InexactFloat64()

	return inv
}

func paymentSummary(order *entity.Order) string {
	var parts []string
	if order.PaymentMethod != "" {
		parts = append(parts, fmt.Sprintf("%s (%s)", service.PaymentLabel(order.PaymentMethod), money(order.Total)))
	}
	if order.PaymentMethod2 != "" {
		var second float64
		if order.Total2 != nil {
			second = *order.Total2
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", service.PaymentLabel(order.PaymentMethod2), money(second)))
	}
	if len(parts) == 0 {
		return service.PaymentLabel("")
	}
	return strings.Join(parts, ", ")
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No disponible"
	}
	return s
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// WriteInvoicePDF renders inv as an A4 PDF into w.
func WriteInvoicePDF(w io.Writer, inv Invoice) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	heading := func(text string) {
		pdf.SetFont("Arial", "B", 14)
		pdf.SetTextColor(50, 50, 150)
		pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.SetTextColor(0, 0, 0)
	}
	line := func(text string) {
		pdf.CellFormat(0, 6, tr(text), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(50, 50, 150)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Factura de %s", inv.RestaurantName)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(0, 0, 0)
	line("Fecha: " + inv.Date)
	pdf.Ln(3)

	heading("Información del Cliente")
	line("ID: " + inv.ClientID)
	line("Nombre: " + inv.ClientName)
	pdf.Ln(3)

	heading("Información de la Orden")
	line("ID de Orden: " + inv.OrderID)
	line("Método de Pago: " + inv.Payments)
	line(fmt.Sprintf("Total: %s $", money(inv.Total)))
	line(fmt.Sprintf("Vuelto: %s $", money(inv.Change)))
	pdf.Ln(3)

	y := pdf.GetY()
	pdf.Line(14, y, 196, y)
	pdf.Ln(3)

	heading("Productos de la Orden")
	pdf.SetFont("Arial", "B", 12)
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.2)
	pdf.CellFormat(76, 7, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Cantidad", "B", 0, "R", false, 0, "")
	pdf.CellFormat(38, 7, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(38, 7, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	for _, l := range inv.Lines {
		pdf.CellFormat(76, 7, tr(l.Product), "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", l.Quantity), "B", 0, "R", false, 0, "")
		pdf.CellFormat(38, 7, money(l.UnitPrice)+" $", "B", 0, "R", false, 0, "")
		pdf.CellFormat(38, 7, money(l.Subtotal)+" $", "B", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 14)
	line(fmt.Sprintf("Total General: %s $", money(inv.GrandTotal)))

	pdf.Ln(16)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(50, 50, 150)
	pdf.CellFormat(0, 5, "Gracias por su preferencia.", "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	return nil
}
