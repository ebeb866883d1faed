package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pipeline-analytics/internal/forecast"
	"github.com/sells-group/pipeline-analytics/internal/model"
)

// Namespace for synthetic opportunity and sale IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:pipeline-analytics:record"))

const defaultProbability = 50

var opportunityColumns = struct {
	id, name, account, amount, probability, win, goProb, weighted []string
	close, stage, status, country, project, po, tags, created   []string
}{
	id:          []string{"id", "opportunity id", "opportunity_id"},
	name:        []string{"name", "nombre", "opportunity name", "opportunity", "oportunidad"},
	account:     []string{"account_id", "account", "cuenta", "customer account nbr"},
	amount:      []string{"total_amount", "amount", "monto", "total", "valor"},
	probability: []string{"probability", "probabilidad", "prob"},
	win:         []string{"win", "win probability", "win_probability", "win prob"},
	goProb:      []string{"go", "go probability", "go_probability", "go prob"},
	weighted:    []string{"weighted_amount", "weighted", "ponderado"},
	close:       []string{"close_date", "close date", "fecha_cierre", "fecha cierre"},
	stage:       []string{"stage", "forecast category", "forecast_category", "etapa", "categoria"},
	status:      []string{"status", "estado"},
	country:     []string{"country", "country name", "pais"},
	project:     []string{"pi_number", "pi number", "pi", "project", "proyecto"},
	po:          []string{"po_number", "po number", "po", "purchase order", "orden de compra"},
	tags:        []string{"risk_tags", "risk tags", "tags"},
	created:     []string{"created_at", "created", "created date", "fecha_creacion"},
}

// Opportunities maps an opportunity sheet onto records. Rows without a name,
// with an unreadable or negative amount, or with an unreadable date are
// skipped and reported. Probabilities may be percentages or fractions (a
// value of 1 or less is a fraction). When both win and go probability
// columns are present, probability is their geometric mean and the weighted
// amount is stored with the record.
func Opportunities(t Table, loc Locale) ([]model.Opportunity, []Issue, error) {
	c := opportunityColumns
	col := struct {
		id, name, account, amount, probability, win, goProb, weighted int
		close, stage, status, country, project, po, tags, created   int
	}{
		id: t.Column(c.id...), name: t.Column(c.name...), account: t.Column(c.account...),
		amount: t.Column(c.amount...), probability: t.Column(c.probability...),
		win: t.Column(c.win...), goProb: t.Column(c.goProb...), weighted: t.Column(c.weighted...),
		close: t.Column(c.close...), stage: t.Column(c.stage...), status: t.Column(c.status...),
		country: t.Column(c.country...), project: t.Column(c.project...), po: t.Column(c.po...),
		tags: t.Column(c.tags...), created: t.Column(c.created...),
	}
	if col.name < 0 || col.amount < 0 {
		return nil, nil, eris.Errorf("ingest: opportunity sheet needs name and amount columns, got %v", t.Header)
	}
	if col.close < 0 {
		return nil, nil, eris.Errorf("ingest: opportunity sheet needs a close date column, got %v", t.Header)
	}

	var (
		out    []model.Opportunity
		issues []Issue
	)
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		rowNum := sheetRow(i)
		skip := func(format string, args ...any) {
			issues = append(issues, Issue{Row: rowNum, Reason: fmt.Sprintf(format, args...)})
		}

		name := cell(row, col.name)
		if name == "" {
			skip("missing name")
			continue
		}
		amount, err := ParseAmount(cell(row, col.amount), loc)
		if err != nil {
			skip("amount: %v", err)
			continue
		}
		if amount < 0 {
			skip("amount: negative %v", amount)
			continue
		}
		closeDate, err := ParseDate(cell(row, col.close), loc)
		if err != nil {
			skip("close date: %v", err)
			continue
		}

		o := model.Opportunity{
			ID:            cell(row, col.id),
			Name:          name,
			AccountID:     cell(row, col.account),
			Amount:        amount,
			Probability:   defaultProbability,
			ProjectID:     cell(row, col.project),
			PurchaseOrder: cell(row, col.po),
			CloseDate:     closeDate,
			Stage:         cell(row, col.stage),
			Status:        model.ParseStatus(cell(row, col.status)),
			RiskTags:      model.ParseRiskTags(splitList(cell(row, col.tags))),
		}
		if raw := cell(row, col.country); raw != "" {
			o.Country = NormalizeCountry(raw, loc.CountryFallback)
		}

		win, goProb := cell(row, col.win), cell(row, col.goProb)
		switch {
		case win != "" && goProb != "":
			w, werr := ParseAmount(win, loc)
			g, gerr := ParseAmount(goProb, loc)
			if werr != nil || gerr != nil {
				skip("win/go probability: %q / %q", win, goProb)
				continue
			}
			w, g = forecast.AsFraction(w), forecast.AsFraction(g)
			o.Probability = forecast.CombinedProbability(w, g) * 100
			o.WeightedAmount = forecast.WeightedAmount(amount, w, g)
		case cell(row, col.probability) != "":
			p, perr := ParseAmount(cell(row, col.probability), loc)
			if perr != nil {
				skip("probability: %v", perr)
				continue
			}
			o.Probability = clampPercent(forecast.AsFraction(p) * 100)
		}
		if raw := cell(row, col.weighted); raw != "" && o.WeightedAmount == 0 {
			if w, werr := ParseAmount(raw, loc); werr == nil && w > 0 {
				o.WeightedAmount = w
			}
		}
		if raw := cell(row, col.created); raw != "" {
			if d, derr := ParseDate(raw, loc); derr == nil {
				o.CreatedAt, _ = time.Parse(isoDate, d)
			}
		}
		if o.ID == "" {
			o.ID = syntheticID("opportunity", o.ProjectID, o.Name, rowNum)
		}
		out = append(out, o)
	}
	return out, issues, nil
}

// syntheticID derives a stable identifier for rows that carry none.
func syntheticID(kind, project, name string, row int) string {
	key := fmt.Sprintf("%s|%s|%s|%d", kind, strings.TrimSpace(project), strings.TrimSpace(name), row)
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
}
