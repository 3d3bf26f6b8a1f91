package pdf

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/go-pdf/fpdf"

	"github.com/zheli/invoice-bun/internal/invoice"
	"github.com/zheli/invoice-bun/internal/user"
	"github.com/zheli/invoice-bun/templates"
)

const dateLayout = "2006-01-02"

// Renderer produces PDF documents from invoices via the embedded template.
// The template is restricted to the basic tags the PDF writer understands
// (b, i, u, br, center, right).
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templates.InvoiceFS, "invoice.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// lineItem is one row extracted from the invoice content payload
type lineItem struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// document is the flattened data handed to the template
type document struct {
	InvoiceNumber string
	Date          string
	DueDate       string
	Status        string
	ClientName    string
	ClientEmail   string
	TotalAmount   string
	OwnerName     string
	OwnerCompany  string
	OwnerEmail    string
	Items         []lineItem
}

// Render populates the invoice template and converts it to PDF bytes
func (r *Renderer) Render(inv *invoice.Invoice, owner *user.User) ([]byte, error) {
	var rendered bytes.Buffer
	if err := r.tmpl.Execute(&rendered, buildDocument(inv, owner)); err != nil {
		return nil, fmt.Errorf("failed to render invoice template: %w", err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 11)

	html := doc.HTMLBasicNew()
	html.Write(5.5, rendered.String())

	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to generate pdf: %w", err)
	}

	return out.Bytes(), nil
}

func buildDocument(inv *invoice.Invoice, owner *user.User) document {
	d := document{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date.Format(dateLayout),
		Status:        inv.Status,
		ClientName:    inv.ClientName,
		TotalAmount:   formatAmount(inv.TotalAmount),
		OwnerName:     owner.Email,
		OwnerEmail:    owner.Email,
		Items:         extractItems(inv.Content),
	}

	if inv.DueDate != nil {
		d.DueDate = inv.DueDate.Format(dateLayout)
	}
	if inv.ClientEmail != nil {
		d.ClientEmail = *inv.ClientEmail
	}
	if owner.FullName != nil && *owner.FullName != "" {
		d.OwnerName = *owner.FullName
	}
	if owner.CompanyName != nil {
		d.OwnerCompany = *owner.CompanyName
	}

	return d
}

// extractItems pulls line items out of the opaque content payload. Items are
// expected under an "items" key as a list of objects; unknown shapes are
// skipped rather than failing the whole document.
func extractItems(content map[string]any) []lineItem {
	if content == nil {
		return nil
	}

	rawItems, ok := content["items"].([]any)
	if !ok {
		return nil
	}

	items := make([]lineItem, 0, len(rawItems))
	for _, raw := range rawItems {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		items = append(items, lineItem{
			Description: asString(fields["description"]),
			Quantity:    asString(fields["quantity"]),
			UnitPrice:   asNumberString(fields["unit_price"]),
			Amount:      asNumberString(fields["amount"]),
		})
	}

	return items
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	case int:
		return fmt.Sprintf("%d", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asNumberString(value any) string {
	if v, ok := value.(float64); ok {
		return formatAmount(v)
	}
	return asString(value)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
