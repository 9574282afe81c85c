package billing

import (
	"fmt"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/taskmarket/backend/internal/models"
)

// RenderInvoicePDF produces a downloadable PDF for the invoice.
func RenderInvoicePDF(inv *models.Invoice, recipient *models.User) ([]byte, error) {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(12, func() {
			m.Col(12, func() {
				m.Text("Invoice "+inv.Number, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(8, func() {
			m.Col(12, func() {
				m.Text("Issued "+inv.CreatedAt.Format("2006-01-02"), props.Text{
					Top:   2,
					Align: consts.Center,
					Size:  10,
					Color: color.Color{Red: 90, Green: 90, Blue: 90},
				})
			})
		})
	})

	m.Row(10, func() {
		m.Col(12, func() {
			m.Text("Billed to: "+recipient.DisplayName+" <"+recipient.Email+">", props.Text{
				Top:  4,
				Size: 11,
			})
		})
	})

	rows := [][]string{
		{"Amount", inv.Amount.StringFixed(2)},
		{"Tax", inv.Tax.StringFixed(2)},
		{"Total", inv.Total.StringFixed(2)},
	}
	if inv.DueDate != nil {
		rows = append(rows, []string{"Due date", inv.DueDate.Format("2006-01-02")})
	}
	rows = append(rows, []string{"Status", inv.Status})

	m.Row(6, func() {})
	m.TableList([]string{"", ""}, rows, props.TableList{
		ContentProp: props.TableListContent{
			Size:      11,
			GridSizes: []uint{6, 6},
		},
		HeaderContentSpace: 1,
		Line:               true,
	})

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
