package web

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/usecase"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>bracket trader</title><meta http-equiv="refresh" content="10"></head>
<body>
<h1>Wallet {{.Total}}</h1>
<table>
<tr><th>Asset</th><th>Quantity</th><th>Price</th><th>Value</th></tr>
{{range .Assets}}<tr><td>{{.Symbol}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Value.StringFixed 2}}</td></tr>
{{end}}</table>
<h2>Open positions</h2>
<table>
<tr><th>Market</th><th>Opened</th><th>Buy</th><th>Last</th><th>Take profit</th><th>Stop loss</th><th>Return</th></tr>
{{range .Positions}}<tr><td>{{.Market}}</td><td>{{.OpenedAt.Format "2006-01-02 15:04"}}</td><td>{{.BuyPrice}}</td><td>{{.LastPrice}}</td><td>{{.TakeProfit.Decimal}}</td><td>{{.StopLoss.Decimal}}</td><td>{{.ReturnPct}}%</td></tr>
{{else}}<tr><td colspan="7">none</td></tr>
{{end}}</table>
</body>
</html>`))

type positionView struct {
	domain.Position
	ReturnPct string
}

type dashboardData struct {
	Total     string
	Assets    []usecase.Asset
	Positions []positionView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		Total:  s.wallet.TotalValue().StringFixed(2),
		Assets: s.wallet.Snapshot(),
	}
	for _, p := range s.ledger.OpenPositions() {
		pct := p.Return().Shift(2).StringFixed(2)
		data.Positions = append(data.Positions, positionView{Position: p, ReturnPct: pct})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, data); err != nil {
		s.logger.Error("Template error", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
