// Package security provides authorization and access control.
//
// Every operation exposed by the core is an enumerated Operation, and every
// Operation requires exactly one Capability. The mapping is a closed table:
// an operation missing from it is denied.
package security

// Capability is a permission granted to roles.
type Capability string

const (
	CapSalesView             Capability = "sales_view"
	CapSalesManage           Capability = "sales_manage"
	CapInvoicesView          Capability = "invoices_view"
	CapInvoicesManage        Capability = "invoices_manage"
	CapPaymentsRecord        Capability = "payments_record"
	CapQuotesManage          Capability = "quotes_manage"
	CapStockView             Capability = "stock_view"
	CapStockMovementsManage  Capability = "stock_movements_manage"
	CapPurchaseOrdersManage  Capability = "purchase_orders_manage"
	CapPurchaseOrdersReceive Capability = "purchase_orders_receive"
	CapCustomersView         Capability = "customers_view"
	CapCustomersManage       Capability = "customers_manage"
	CapProductsView          Capability = "products_view"
	CapProductsManage        Capability = "products_manage"
)

// Operation names a single call into the core.
type Operation string

const (
	OpOrderView    Operation = "order.view"
	OpOrderCreate  Operation = "order.create"
	OpOrderUpdate  Operation = "order.update"
	OpOrderConfirm Operation = "order.confirm"
	OpOrderCancel  Operation = "order.cancel"

	OpDeliveryView          Operation = "delivery.view"
	OpDeliveryCreate        Operation = "delivery.create"
	OpDeliveryEditLines     Operation = "delivery.edit_lines"
	OpDeliveryMarkSent      Operation = "delivery.mark_sent"
	OpDeliveryMarkDelivered Operation = "delivery.mark_delivered"
	OpDeliveryCancel        Operation = "delivery.cancel"

	OpInvoiceView            Operation = "invoice.view"
	OpInvoiceCreate          Operation = "invoice.create"
	OpInvoiceCreateFromOrder Operation = "invoice.create_from_order"
	OpInvoiceIssue           Operation = "invoice.issue"
	OpInvoiceCancel          Operation = "invoice.cancel"
	OpPaymentRecord          Operation = "payment.record"

	OpQuoteView       Operation = "quote.view"
	OpQuoteCreate     Operation = "quote.create"
	OpQuoteTransition Operation = "quote.transition"
	OpQuoteConvert    Operation = "quote.convert"

	OpStockView           Operation = "stock.view"
	OpStockMovementRecord Operation = "stock.record_movement"

	OpPurchaseOrderView       Operation = "purchase_order.view"
	OpPurchaseOrderCreate     Operation = "purchase_order.create"
	OpPurchaseOrderTransition Operation = "purchase_order.transition"
	OpPurchaseOrderReceive    Operation = "purchase_order.receive"

	OpProductView   Operation = "product.view"
	OpProductManage Operation = "product.manage"

	OpCustomerView   Operation = "customer.view"
	OpCustomerManage Operation = "customer.manage"
	OpCustomerMerge  Operation = "customer.merge"
)

var requiredCapability = map[Operation]Capability{
	OpOrderView:    CapSalesView,
	OpOrderCreate:  CapSalesManage,
	OpOrderUpdate:  CapSalesManage,
	OpOrderConfirm: CapSalesManage,
	OpOrderCancel:  CapSalesManage,

	OpDeliveryView:          CapSalesView,
	OpDeliveryCreate:        CapSalesManage,
	OpDeliveryEditLines:     CapSalesManage,
	OpDeliveryMarkSent:      CapSalesManage,
	OpDeliveryMarkDelivered: CapSalesManage,
	OpDeliveryCancel:        CapSalesManage,

	OpInvoiceView:            CapInvoicesView,
	OpInvoiceCreate:          CapInvoicesManage,
	OpInvoiceCreateFromOrder: CapInvoicesManage,
	OpInvoiceIssue:           CapInvoicesManage,
	OpInvoiceCancel:          CapInvoicesManage,
	OpPaymentRecord:          CapPaymentsRecord,

	OpQuoteView:       CapSalesView,
	OpQuoteCreate:     CapQuotesManage,
	OpQuoteTransition: CapQuotesManage,
	OpQuoteConvert:    CapQuotesManage,

	OpStockView:           CapStockView,
	OpStockMovementRecord: CapStockMovementsManage,

	OpPurchaseOrderView:       CapStockView,
	OpPurchaseOrderCreate:     CapPurchaseOrdersManage,
	OpPurchaseOrderTransition: CapPurchaseOrdersManage,
	OpPurchaseOrderReceive:    CapPurchaseOrdersReceive,

	OpProductView:   CapProductsView,
	OpProductManage: CapProductsManage,

	OpCustomerView:   CapCustomersView,
	OpCustomerManage: CapCustomersManage,
	OpCustomerMerge:  CapCustomersManage,
}

// RequiredCapability returns the capability guarding op.
func RequiredCapability(op Operation) (Capability, bool) {
	c, ok := requiredCapability[op]
	return c, ok
}

// Operations lists every mapped operation.
func Operations() []Operation {
	ops := make([]Operation, 0, len(requiredCapability))
	for op := range requiredCapability {
		ops = append(ops, op)
	}
	return ops
}
