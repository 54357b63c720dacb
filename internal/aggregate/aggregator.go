package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lastorders/closeout/internal/model"
	"github.com/lastorders/closeout/internal/posfile"
)

// topItemLimit caps the ranking included in an aggregate.
const topItemLimit = 5

// Aggregator folds raw POS rows into per-file partials and merges partials
// into one PosShiftAggregate. Partials are independent, so files can be
// folded in parallel; the merge itself is a single deterministic pass.
type Aggregator struct {
	classifier *Classifier
	payments   *PaymentNormalizer
}

// NewAggregator creates an aggregator with the given classification policy.
// Nil rule tables fall back to the package defaults.
func NewAggregator(rules []CategoryRule, synonyms []PaymentSynonym) *Aggregator {
	return &Aggregator{
		classifier: NewClassifier(rules),
		payments:   NewPaymentNormalizer(synonyms),
	}
}

// Partial is the accumulation from one export file. It is only ever touched
// by the goroutine folding that file.
type Partial struct {
	payments        map[model.PaymentBucket]decimal.Decimal
	items           map[string]model.ItemTotal
	receiptIDs      map[string]bool
	itemOrder       []string
	lineItems       []model.CanonicalLineItem
	modifiers       []model.CanonicalLineItem
	annotations     []model.Annotation
	gross           decimal.Decimal
	net             decimal.Decimal
	discounts       decimal.Decimal
	receiptTotal    decimal.Decimal
	summaryReceipts int
	hasSummary      bool
}

func newPartial() *Partial {
	return &Partial{
		payments:     make(map[model.PaymentBucket]decimal.Decimal),
		items:        make(map[string]model.ItemTotal),
		receiptIDs:   make(map[string]bool),
		gross:        decimal.Zero,
		net:          decimal.Zero,
		discounts:    decimal.Zero,
		receiptTotal: decimal.Zero,
	}
}

// ShiftData is the merged result of all partials for one shift: the aggregate
// plus the canonical line items the usage estimator consumes.
type ShiftData struct {
	Aggregate   *model.PosShiftAggregate
	LineItems   []model.CanonicalLineItem
	Modifiers   []model.CanonicalLineItem
	Annotations []model.Annotation
}

// FoldRows accumulates one file's rows into a fresh partial.
func (a *Aggregator) FoldRows(rows []model.RawPosRow) *Partial {
	p := newPartial()
	for _, row := range rows {
		switch row.Kind {
		case model.KindItemSales:
			a.foldItemRow(p, row)
		case model.KindPaymentTypeSales:
			a.foldPaymentRow(p, row)
		case model.KindReceipts:
			a.foldReceiptRow(p, row)
		case model.KindSalesSummary, model.KindShiftReport:
			a.foldSummaryRow(p, row)
		case model.KindModifierSales:
			a.foldModifierRow(p, row)
		}
	}
	return p
}

// Merge combines partials in input order into the aggregate for a shift.
// Callers pass partials in a stable order (the engine sorts by filename) so
// first-seen tie-breaks are reproducible.
func (a *Aggregator) Merge(shiftDate time.Time, partials []*Partial) *ShiftData {
	agg := model.NewPosShiftAggregate(shiftDate)
	data := &ShiftData{Aggregate: agg}

	summaryReceipts := 0
	hasSummary := false
	receiptTotal := decimal.Zero
	distinctReceipts := 0

	for _, p := range partials {
		if p == nil {
			continue
		}
		if p.hasSummary {
			hasSummary = true
			agg.GrossSales = agg.GrossSales.Add(p.gross)
			agg.NetSales = agg.NetSales.Add(p.net)
			agg.Discounts = agg.Discounts.Add(p.discounts)
			summaryReceipts += p.summaryReceipts
		}
		receiptTotal = receiptTotal.Add(p.receiptTotal)
		distinctReceipts += len(p.receiptIDs)

		for bucket, amount := range p.payments {
			agg.Payments[bucket] = agg.PaymentTotal(bucket).Add(amount)
		}

		for _, name := range p.itemOrder {
			item := p.items[name]
			existing, ok := agg.ItemTotals[name]
			if !ok {
				agg.ItemOrder = append(agg.ItemOrder, name)
				existing = model.ItemTotal{Name: name, Quantity: decimal.Zero, Revenue: decimal.Zero}
			}
			existing.Quantity = existing.Quantity.Add(item.Quantity)
			existing.Revenue = existing.Revenue.Add(item.Revenue)
			agg.ItemTotals[name] = existing
		}

		data.LineItems = append(data.LineItems, p.lineItems...)
		data.Modifiers = append(data.Modifiers, p.modifiers...)
		data.Annotations = append(data.Annotations, p.annotations...)
	}

	// Sales figures fall back from summary to receipts to payments to item
	// revenue, whichever the night's exports actually contained.
	if !hasSummary {
		switch {
		case receiptTotal.Sign() != 0:
			agg.GrossSales = receiptTotal
		default:
			paymentSum := decimal.Zero
			for _, amount := range agg.Payments {
				paymentSum = paymentSum.Add(amount)
			}
			if paymentSum.Sign() != 0 {
				agg.GrossSales = paymentSum
			} else {
				for _, item := range agg.ItemTotals {
					agg.GrossSales = agg.GrossSales.Add(item.Revenue)
				}
			}
		}
		agg.NetSales = agg.GrossSales.Sub(agg.Discounts)
	}

	if hasSummary && summaryReceipts > 0 {
		agg.ReceiptCount = summaryReceipts
	} else {
		agg.ReceiptCount = distinctReceipts
	}

	for _, li := range data.LineItems {
		agg.CategoryTotals[li.Category] = categoryTotal(agg, li.Category).Add(li.Quantity)
	}

	agg.TopItems = rankItems(agg)

	return data
}

func categoryTotal(agg *model.PosShiftAggregate, c model.Category) decimal.Decimal {
	if v, ok := agg.CategoryTotals[c]; ok {
		return v
	}
	return decimal.Zero
}

// rankItems returns the top items sorted by quantity descending, revenue
// descending, then first-seen order. The stable sort over the first-seen
// slice supplies the final tie-break for free.
func rankItems(agg *model.PosShiftAggregate) []model.ItemTotal {
	ranked := make([]model.ItemTotal, 0, len(agg.ItemOrder))
	for _, name := range agg.ItemOrder {
		ranked = append(ranked, agg.ItemTotals[name])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Quantity.Cmp(ranked[j].Quantity); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Revenue.Cmp(ranked[j].Revenue) > 0
	})

	if len(ranked) > topItemLimit {
		ranked = ranked[:topItemLimit]
	}
	return ranked
}

func (a *Aggregator) foldItemRow(p *Partial, row model.RawPosRow) {
	name, ok := field(row, "item name", "name", "item")
	if !ok || name == "" {
		return
	}

	qty := a.number(p, row, "items sold", "quantity", "qty", "count")
	revenue := a.number(p, row, "net sales", "gross sales", "sales", "amount", "total")

	li := model.CanonicalLineItem{
		Name:        name,
		Quantity:    qty,
		GrossAmount: revenue,
		Category:    a.classifier.Classify(name),
	}
	if sku, ok := field(row, "sku", "article number"); ok {
		li.SKU = sku
	}
	p.lineItems = append(p.lineItems, li)

	existing, seen := p.items[name]
	if !seen {
		p.itemOrder = append(p.itemOrder, name)
		existing = model.ItemTotal{Name: name, Quantity: decimal.Zero, Revenue: decimal.Zero}
	}
	existing.Quantity = existing.Quantity.Add(qty)
	existing.Revenue = existing.Revenue.Add(revenue)
	p.items[name] = existing
}

func (a *Aggregator) foldPaymentRow(p *Partial, row model.RawPosRow) {
	label, ok := field(row, "payment type", "type")
	if !ok || label == "" {
		return
	}

	amount := a.number(p, row, "payment amount", "net amount", "amount", "total")
	bucket := a.payments.Normalize(label)
	if v, seen := p.payments[bucket]; seen {
		p.payments[bucket] = v.Add(amount)
	} else {
		p.payments[bucket] = amount
	}
}

func (a *Aggregator) foldReceiptRow(p *Partial, row model.RawPosRow) {
	id, ok := field(row, "receipt number", "receipt no.", "receipt")
	if !ok || id == "" {
		return
	}

	// Receipt exports repeat the receipt header per line item; only count
	// and total each receipt once.
	if p.receiptIDs[id] {
		return
	}
	p.receiptIDs[id] = true
	p.receiptTotal = p.receiptTotal.Add(a.number(p, row, "total", "total money", "amount"))
}

func (a *Aggregator) foldSummaryRow(p *Partial, row model.RawPosRow) {
	p.hasSummary = true
	p.gross = p.gross.Add(a.number(p, row, "gross sales"))
	p.net = p.net.Add(a.number(p, row, "net sales"))
	p.discounts = p.discounts.Add(a.number(p, row, "discounts", "discount"))
	p.summaryReceipts += int(a.number(p, row, "receipts", "receipt count").IntPart())
}

func (a *Aggregator) foldModifierRow(p *Partial, row model.RawPosRow) {
	name, ok := field(row, "modifier", "modifier name", "option", "name")
	if !ok || name == "" {
		return
	}

	p.modifiers = append(p.modifiers, model.CanonicalLineItem{
		Name:        name,
		Quantity:    a.number(p, row, "quantity sold", "quantity", "qty"),
		GrossAmount: a.number(p, row, "gross sales", "net sales", "amount"),
		Category:    a.classifier.Classify(name),
	})
}

// field returns the first populated column among the given aliases.
func field(row model.RawPosRow, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := row.Fields[name]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// number cleans the first populated numeric column among the aliases. A cell
// that fails to parse becomes zero with a recorded warning; an absent column
// is simply zero.
func (a *Aggregator) number(p *Partial, row model.RawPosRow, names ...string) decimal.Decimal {
	raw, ok := field(row, names...)
	if !ok {
		return decimal.Zero
	}

	d, parsed := posfile.CleanNumber(raw)
	if !parsed {
		p.annotations = append(p.annotations, model.Annotation{
			Code:     model.CodeParseWarning,
			Severity: model.SeverityWarn,
			Message:  fmt.Sprintf("line %d: unparseable value %q defaulted to 0", row.Line, raw),
			File:     row.File,
		})
	}
	return d
}
