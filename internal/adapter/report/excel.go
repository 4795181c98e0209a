package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/YelzhanWeb/refugio-pos/internal/app/views"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

const (
	SheetTables  = "Mesas"
	SheetOrders  = "Ordenes"
	SheetCatalog = "Catalogo"
)

// WriteAdminReport renders the admin view and the current orders as an xlsx workbook
func WriteAdminReport(w io.Writer, admin views.AdminView, orders []domain.Order, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTables); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetOrders, SheetCatalog} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	tables := [][]interface{}{{"Mesa", "Órdenes abiertas", "Total"}}
	for _, t := range admin.Occupied {
		tables = append(tables, []interface{}{domain.TableLabel(t.Table.Number), t.OpenOrders, t.Total.InexactFloat64()})
	}
	tables = append(tables,
		[]interface{}{},
		[]interface{}{"Total abierto", "", admin.GrandTotal.InexactFloat64()},
		[]interface{}{"Generado", generatedAt.Format(time.RFC3339)},
	)

	rows := [][]interface{}{{"ID", "Mesa", "Tipo", "Estado", "Creada", "Artículos", "Total"}}
	for _, o := range orders {
		rows = append(rows, []interface{}{
			o.ID, o.TableID, string(o.Type), string(o.Status),
			o.Timestamp.Format("2006-01-02 15:04"), describeItems(o.Items), o.Total.InexactFloat64(),
		})
	}

	catalog := [][]interface{}{{"ID", "Nombre", "Categoría", "Precio", "Activo"}}
	for _, item := range admin.Catalog {
		catalog = append(catalog, []interface{}{item.ID, item.Name, item.Category, item.Price.InexactFloat64(), item.Active()})
	}

	for sheet, data := range map[string][][]interface{}{
		SheetTables:  tables,
		SheetOrders:  rows,
		SheetCatalog: catalog,
	} {
		if err := writeRows(f, sheet, data, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	lastCol := strings.TrimRight(last, "0123456789")
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func describeItems(items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := item.MenuItem.Name
		if name == "" {
			name = "#" + item.MenuItem.ID
		}
		part := fmt.Sprintf("%dx %s", item.Quantity, name)
		if item.Note != "" {
			part += " (" + item.Note + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
