package core

import "strings"

// ClassifyStatus maps the free-text status column of a spreadsheet
// export to a payment status. Exports write things like "PAGO EM
// 01/03/2024" or "Aguardando pagamento"; anything mentioning a payment
// counts as received, the rest stays receivable.
func ClassifyStatus(s string) PaymentStatus {
	up := strings.ToUpper(strings.TrimSpace(s))
	if strings.Contains(up, "PAGO") || strings.Contains(up, "PAID") {
		return StatusReceived
	}
	return StatusReceivable
}
