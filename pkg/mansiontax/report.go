package mansiontax

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"constituency", "council", "population", "wealth_factor", "weight",
	"estimated_sales", "band_i_sales", "band_j_sales", "allocated_revenue",
	"share_pct",
}

// WriteCSV writes the allocation as CSV, one row per constituency.
func (a *Analysis) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range a.Rows {
		record := []string{
			row.Constituency,
			row.Council,
			strconv.Itoa(row.Population),
			strconv.FormatFloat(row.WealthFactor, 'f', 2, 64),
			strconv.FormatFloat(row.Weight, 'f', 6, 64),
			strconv.Itoa(row.EstimatedSales),
			strconv.Itoa(row.BandISales),
			strconv.Itoa(row.BandJSales),
			strconv.FormatFloat(row.AllocatedRevenue, 'f', 2, 64),
			strconv.FormatFloat(row.SharePct, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes a fixed-width table with a totals footer.
func (a *Analysis) WriteTable(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-44s %-22s %10s %7s %7s %6s %7s %7s %12s %8s\n",
		"CONSTITUENCY", "COUNCIL", "POPULATION", "WEALTH", "WEIGHT",
		"SALES", "BAND I", "BAND J", "REVENUE", "SHARE%")
	for _, row := range a.Rows {
		fmt.Fprintf(&b, "%-44s %-22s %10d %7.2f %7.4f %6d %7d %7d %12.0f %8.2f\n",
			row.Constituency, row.Council, row.Population, row.WealthFactor,
			row.Weight, row.EstimatedSales, row.BandISales, row.BandJSales,
			row.AllocatedRevenue, row.SharePct)
	}
	fmt.Fprintf(&b, "\nTOTAL: %d sales (band I %d, band J %d), revenue £%.0f, %.2f%% of expected £%.0f\n",
		a.TotalSales, a.TotalBandI, a.TotalBandJ, a.TotalRevenue,
		a.TotalRevenue/a.ExpectedRevenue*100, a.ExpectedRevenue)
	_, err := io.WriteString(w, b.String())
	return err
}
