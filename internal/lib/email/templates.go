package email

import "context"

// Template names an embedded HTML template under templates/.
type Template string

const (
	// TemplateInvoice corresponds to templates/invoice.html.
	TemplateInvoice Template = "invoice"
)

// InvoiceData is what templates/invoice.html expects.
type InvoiceData struct {
	CustomerName string
	Number       string
	Amount       string
	Currency     string
	DueDate      string
	Description  string
}

// SendInvoiceEmail sends the invoice notice to the customer.
func (c *Client) SendInvoiceEmail(ctx context.Context, to string, data InvoiceData) error {
	return c.SendEmail(
		ctx,
		to,
		"Invoice "+data.Number+" from Shalom Ministry",
		TemplateInvoice,
		data,
	)
}
