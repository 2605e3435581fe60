package closure

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/estacionsur/stationd/internal/domain/fuel"
)

// WriteExcel renders the report as a two-sheet workbook: shift totals and
// per-tank reconciliation.
func WriteExcel(rep Report, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const shiftSheet = "Turnos"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), shiftSheet); err != nil {
		return err
	}

	row := 1
	setRow := func(sheet string, values ...any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
		return nil
	}

	if err := setRow(shiftSheet, fmt.Sprintf("Cierre diario %s", rep.DateStr)); err != nil {
		return err
	}
	if err := setRow(shiftSheet, "Total", rep.GrandTotal, "Litros", rep.TotalLitres); err != nil {
		return err
	}
	row++
	if err := setRow(shiftSheet, "Turno", "Banda", "Abierto", "Cerrado", "Total", "Litros"); err != nil {
		return err
	}
	for _, sh := range rep.Shifts {
		closedAt := ""
		if sh.ClosedAt != nil {
			closedAt = sh.ClosedAt.Format("15:04")
		}
		if err := setRow(shiftSheet, sh.ID, string(sh.Band), sh.OpenedAt.Format("15:04"), closedAt, sh.GrandTotal, sh.Litres); err != nil {
			return err
		}
	}
	row++
	if err := setRow(shiftSheet, "Ventas por producto"); err != nil {
		return err
	}
	for _, g := range fuel.Grades() {
		if err := setRow(shiftSheet, string(g), rep.SalesByGrade[g]); err != nil {
			return err
		}
	}

	const tankSheet = "Tanques"
	if _, err := f.NewSheet(tankSheet); err != nil {
		return err
	}
	row = 1
	if err := setRow(tankSheet, "Tanque", "Producto", "Inicio", "Fin", "Entradas", "Ventas", "Teorico", "Diferencia", "Minimo"); err != nil {
		return err
	}
	opt := func(v *float64) any {
		if v == nil {
			return ""
		}
		return *v
	}
	for _, t := range rep.Tanks {
		if err := setRow(tankSheet, t.Name, string(t.Grade), opt(t.StartLitres), opt(t.EndLitres),
			t.InflowLitres, t.SalesLitres, opt(t.TheoreticalEndLitres), opt(t.DiscrepancyLitres), opt(t.MinLevelLitres)); err != nil {
			return err
		}
	}

	return f.Write(w)
}
