package email

// PreviewData holds sample data for rendering each template locally.
var PreviewData = map[Template]any{
	TemplateInvoice: InvoiceData{
		CustomerName: "Grace Hopper",
		Number:       "INV-2024-001",
		Amount:       "150.00",
		Currency:     "USD",
		DueDate:      "2024-03-01",
		Description:  "Youth retreat registration",
	},
}
