// Package pdf genera el reporte de stock de productos con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre de la app + título  │  Fecha + usuario       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Precio | Stock | Valorizado               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: productos / unidades / valor del inventario        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestion-api/internal/application/usecase"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
)

var _ usecase.ProductReportGenerator = (*MarotoReportGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorStripe  = &props.Color{Red: 240, Green: 244, Blue: 248}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// MarotoReportGenerator implementa usecase.ProductReportGenerator.
type MarotoReportGenerator struct {
	appName string
}

// NewMarotoReportGenerator construye el generador; appName va en el encabezado.
func NewMarotoReportGenerator(appName string) *MarotoReportGenerator {
	return &MarotoReportGenerator{appName: appName}
}

// GenerateStockReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateStockReport(
	_ context.Context,
	products []*entity.Product,
	requestedBy string,
	at time.Time,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de stock", true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(g.appName, requestedBy, at))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(products)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(products))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar reporte: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(appName, requestedBy string, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(appName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("REPORTE DE STOCK", props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Fecha: "+at.Format("02/01/2006 15:04"), props.Text{Size: 8, Align: align.Right, Top: 2}),
			text.New("Generado por: "+nonEmpty(requestedBy, "-"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 6, align.Left),
		h("Precio", 2, align.Right),
		h("Stock", 1, align.Center),
		h("Valorizado", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableRows una fila por producto; stock en cero se resalta.
func tableRows(products []*entity.Product) []core.Row {
	if len(products) == 0 {
		return []core.Row{row.New(8).Add(col.New(12).Add(text.New("Sin productos registrados", props.Text{
			Size: 8, Align: align.Center, Top: 2, Color: colorGray,
		})))}
	}
	out := make([]core.Row, 0, len(products))
	for i, p := range products {
		stockStyle := props.Text{Size: 8, Align: align.Center, Top: 1}
		if p.Stock == 0 {
			stockStyle.Color = colorAlert
			stockStyle.Style = fontstyle.Bold
		}
		r := row.New(7).Add(
			col.New(6).Add(text.New(p.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(p.Price), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(fmt.Sprintf("%d", p.Stock), stockStyle)),
			col.New(3).Add(text.New(formatMoney(stockValue(p)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		out = append(out, r)
	}
	return out
}

func totalsRow(products []*entity.Product) core.Row {
	units := 0
	total := decimal.Zero
	for _, p := range products {
		units += p.Stock
		total = total.Add(stockValue(p))
	}
	return row.New(14).Add(
		col.New(6).Add(
			text.New(fmt.Sprintf("Productos: %d", len(products)), props.Text{Size: 9, Top: 2}),
			text.New(fmt.Sprintf("Unidades en stock: %d", units), props.Text{Size: 9, Top: 8}),
		),
		col.New(6).Add(
			text.New("VALOR DEL INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 2,
			}),
			text.New(formatMoney(total), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
		),
	)
}

func stockValue(p *entity.Product) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}

func formatMoney(d decimal.Decimal) string {
	return "$ " + d.StringFixed(2)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
